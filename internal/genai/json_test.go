package genai

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "bare array",
			input:  `["a", "b"]`,
			want:   `["a", "b"]`,
			wantOK: true,
		},
		{
			name:   "markdown fenced object",
			input:  "```json\n{\"updates\": {}}\n```",
			want:   `{"updates": {}}`,
			wantOK: true,
		},
		{
			name:   "prose around array",
			input:  "Here are the goals: [\"join a club\"] Hope that helps!",
			want:   `["join a club"]`,
			wantOK: true,
		},
		{
			name:   "nested brackets",
			input:  `{"updates": {"notes": ["a", "b"]}, "disclaimers": ""}`,
			want:   `{"updates": {"notes": ["a", "b"]}, "disclaimers": ""}`,
			wantOK: true,
		},
		{
			name:   "brackets inside string values",
			input:  `{"text": "a } tricky ] value"}`,
			want:   `{"text": "a } tricky ] value"}`,
			wantOK: true,
		},
		{
			name:   "escaped quote inside string",
			input:  `{"text": "she said \"hi\""}`,
			want:   `{"text": "she said \"hi\""}`,
			wantOK: true,
		},
		{
			name:   "no json at all",
			input:  "I could not find any goals in that message.",
			wantOK: false,
		},
		{
			name:   "unbalanced",
			input:  `{"updates": {`,
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractJSON(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
