package normalize

import (
	"testing"
)

func TestCanonicalAddress(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantCanonical string
	}{
		{
			name:          "simple address",
			input:         "1341 Spring Creek Dr Provo UT 84606",
			wantCanonical: "1341 SPRING CREEK DRIVE PROVO UT 84606",
		},
		{
			name:          "address with punctuation and abbreviations",
			input:         "45 Church Rd., Salt Lake City, UT 84101",
			wantCanonical: "45 CHURCH ROAD SALT LAKE CITY UT 84101",
		},
		{
			name:          "apartment suffix",
			input:         "1341 Spring Creek Dr Apt 4 Provo UT 84606",
			wantCanonical: "1341 SPRING CREEK DRIVE APARTMENT 4 PROVO UT 84606",
		},
		{
			name:          "hash unit",
			input:         "920 Main St #12 Orem UT 84057",
			wantCanonical: "920 MAIN STREET UNIT 12 OREM UT 84057",
		},
		{
			name:          "dash unit suffix",
			input:         "920 Main St Orem UT - 12",
			wantCanonical: "920 MAIN STREET OREM UT UNIT 12",
		},
		{
			name:          "empty address",
			input:         "",
			wantCanonical: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, _ := CanonicalAddress(tt.input)

			if canonical != tt.wantCanonical {
				t.Errorf("CanonicalAddress() = %v, want %v", canonical, tt.wantCanonical)
			}

			// Normalization must be idempotent
			again, _ := CanonicalAddress(canonical)
			if again != canonical {
				t.Errorf("CanonicalAddress() not idempotent: %v -> %v", canonical, again)
			}
		})
	}
}

func TestBuildingAddress(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1341 SPRING CREEK DRIVE APARTMENT 4 PROVO UT 84606", "1341 SPRING CREEK DRIVE PROVO UT 84606"},
		{"920 MAIN STREET UNIT 12 OREM UT 84057", "920 MAIN STREET OREM UT 84057"},
		{"100 CENTER STREET SUITE 210 PROVO UT 84601", "100 CENTER STREET PROVO UT 84601"},
		{"1341 SPRING CREEK DRIVE PROVO UT 84606", "1341 SPRING CREEK DRIVE PROVO UT 84606"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BuildingAddress(tt.input); got != tt.want {
				t.Errorf("BuildingAddress(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitUnit(t *testing.T) {
	building, unit := SplitUnit("920 MAIN STREET UNIT 12 OREM UT 84057")
	if building != "920 MAIN STREET OREM UT 84057" {
		t.Errorf("SplitUnit building = %v", building)
	}
	if unit != "12" {
		t.Errorf("SplitUnit unit = %v, want 12", unit)
	}

	building, unit = SplitUnit("920 MAIN STREET OREM UT 84057")
	if unit != "" {
		t.Errorf("SplitUnit unit = %v, want empty", unit)
	}
	if building != "920 MAIN STREET OREM UT 84057" {
		t.Errorf("SplitUnit building = %v", building)
	}
}

func TestExtractZip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1341 SPRING CREEK DRIVE PROVO UT 84606", "84606"},
		{"45 CHURCH ROAD SALT LAKE CITY UT 84101 4001", "84101"},
		{"NO ZIP HERE", ""},
	}

	for _, tt := range tests {
		if got := ExtractZip(tt.input); got != tt.want {
			t.Errorf("ExtractZip(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name    string
		tokens1 []string
		tokens2 []string
		want    float64
	}{
		{"identical", []string{"A", "B"}, []string{"A", "B"}, 1.0},
		{"disjoint", []string{"A", "B"}, []string{"C", "D"}, 0.0},
		{"both empty", nil, nil, 1.0},
		{"one empty", []string{"A"}, nil, 0.0},
		{"partial", []string{"A", "B", "C"}, []string{"B", "C", "D"}, 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenOverlap(tt.tokens1, tt.tokens2); got != tt.want {
				t.Errorf("TokenOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}
