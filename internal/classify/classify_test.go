package classify

import "testing"

func TestClassifyGlobalCommands(t *testing.T) {
	cases := []struct {
		raw  string
		want Command
	}{
		{"home", CommandResetToMain},
		{"main", CommandResetToMain},
		{"MENU", CommandResetToMain},
		{"exit", CommandTerminate},
		{"stop", CommandTerminate},
		{"quit", CommandTerminate},
		{"end", CommandTerminate},
		{"cancel", CommandTerminate},
		{"bye", CommandTerminate},
		{"  Goodbye  ", CommandTerminate},
		{"help", CommandShowHelp},
		{"commands", CommandShowHelp},
		{"?", CommandShowHelp},
		{"info", CommandShowHelp},
	}
	for _, tc := range cases {
		in := Classify(tc.raw)
		if in.Kind != KindGlobalCommand {
			t.Errorf("Classify(%q).Kind = %s, want global command", tc.raw, in.Kind)
			continue
		}
		if in.Command != tc.want {
			t.Errorf("Classify(%q).Command = %s, want %s", tc.raw, in.Command, tc.want)
		}
	}
}

func TestClassifyNumeric(t *testing.T) {
	in := Classify(" 3 ")
	if in.Kind != KindNumeric || in.Index != 3 {
		t.Errorf("Classify(\" 3 \") = %+v, want numeric index 3", in)
	}

	// Zero and negatives are not menu choices.
	for _, raw := range []string{"0", "-1"} {
		if got := Classify(raw); got.Kind != KindText {
			t.Errorf("Classify(%q).Kind = %s, want text", raw, got.Kind)
		}
	}
}

func TestClassifyText(t *testing.T) {
	in := Classify("  I Have a FEVER  ")
	if in.Kind != KindText {
		t.Fatalf("kind = %s, want text", in.Kind)
	}
	if in.Text != "i have a fever" {
		t.Errorf("text = %q, want trimmed lowercase", in.Text)
	}

	if got := Classify(""); got.Kind != KindText || got.Text != "" {
		t.Errorf("Classify(\"\") = %+v, want empty text", got)
	}
}
