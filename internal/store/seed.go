package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brianmaseno/medtech/internal/models"
)

// weekdaySlots is the availability grid used for the sample doctors.
var weekdaySlots = []string{"9:00 AM", "10:00 AM", "11:00 AM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM", "6:00 PM"}

// SampleDoctors returns the development fixture set. Deployments replace
// these via UpsertDoctor or direct database loads.
func SampleDoctors() []models.Doctor {
	availability := map[string][]string{
		"monday":    weekdaySlots,
		"tuesday":   weekdaySlots,
		"wednesday": weekdaySlots,
		"thursday":  weekdaySlots,
		"friday":    weekdaySlots,
	}
	return []models.Doctor{
		{ID: "DOC001", Name: "Dr. Sarah Mwangi", Specialization: "General Practitioner", Hospital: "Nairobi Hospital", ConsultationFee: 1500, Rating: 4.8, Phone: "+254711000001", Active: true, Availability: availability},
		{ID: "DOC002", Name: "Dr. James Ochieng", Specialization: "Pediatrician", Hospital: "Kenyatta National Hospital", ConsultationFee: 2000, Rating: 4.6, Phone: "+254711000002", Active: true, Availability: availability},
		{ID: "DOC003", Name: "Dr. Grace Wanjiku", Specialization: "Gynecologist", Hospital: "Aga Khan University Hospital", ConsultationFee: 2500, Rating: 4.9, Phone: "+254711000003", Active: true, Availability: availability},
		{ID: "DOC004", Name: "Dr. Peter Kamau", Specialization: "Cardiologist", Hospital: "MP Shah Hospital", ConsultationFee: 3000, Rating: 4.7, Phone: "+254711000004", Active: true, Availability: availability},
		{ID: "DOC005", Name: "Dr. Amina Hassan", Specialization: "Dermatologist", Hospital: "Coast General Hospital", ConsultationFee: 1800, Rating: 4.5, Phone: "+254711000005", Active: true, Availability: availability},
	}
}

// SeedSampleDoctors loads the fixture doctors into the store when the doctor
// table is empty. Existing data is left untouched.
func SeedSampleDoctors(ctx context.Context, s Store) error {
	existing, err := s.ListActiveDoctors(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing doctors: %w", err)
	}
	if len(existing) > 0 {
		slog.Debug("SeedSampleDoctors skipped, doctors already present", "count", len(existing))
		return nil
	}
	for _, d := range SampleDoctors() {
		if err := s.UpsertDoctor(ctx, d); err != nil {
			return err
		}
	}
	slog.Info("Seeded sample doctors", "count", len(SampleDoctors()))
	return nil
}
