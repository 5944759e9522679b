package contact

import (
	"strings"
	"testing"
)

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		km   float64
		want string
	}{
		{0, "0 m"},
		{0.65, "650 m"},
		{0.9996, "1000 m"},
		{1, "1.0 km"},
		{12.345, "12.3 km"},
		{-1, ""},
	}
	for _, tc := range cases {
		if got := FormatDistance(tc.km); got != tc.want {
			t.Fatalf("FormatDistance(%v) = %q, want %q", tc.km, got, tc.want)
		}
	}
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"Dr. Aarav Sharma": "DA",
		"aarav":            "A",
		"":                 "",
		"  city   clinic ": "CC",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Fatalf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWhatsAppURL(t *testing.T) {
	d := Doctor{Name: "Dr. A", Phone: "+91 98110-45210"}
	mobile, err := WhatsAppURL(d, true)
	if err != nil {
		t.Fatalf("WhatsAppURL returned error: %v", err)
	}
	if !strings.HasPrefix(mobile, "https://wa.me/919811045210?text=Hello+Dr.+A%2C+I+found") {
		t.Fatalf("mobile url = %q", mobile)
	}
	web, err := WhatsAppURL(d, false)
	if err != nil {
		t.Fatalf("WhatsAppURL returned error: %v", err)
	}
	if !strings.HasPrefix(web, "https://web.whatsapp.com/send?phone=919811045210&text=") {
		t.Fatalf("web url = %q", web)
	}
	if _, err := WhatsAppURL(Doctor{Name: "x"}, true); err == nil {
		t.Fatalf("WhatsAppURL without phone returned nil error")
	}
}

func TestLinks(t *testing.T) {
	if got := TelURL("0120 662 9999"); got != "tel:01206629999" {
		t.Fatalf("TelURL = %q", got)
	}
	got := MapsURL(Doctor{Name: "Clinic", Lat: 28.5, Lon: 77.25})
	if !strings.Contains(got, "destination=28.5%2C77.25") || !strings.HasPrefix(got, "https://www.google.com/maps/dir/?") {
		t.Fatalf("MapsURL = %q", got)
	}
}

func TestNormalizeEmergencyContact(t *testing.T) {
	cases := map[string]string{
		"":          "112",
		"  ":        "112",
		"call":      "112",
		" +91 100 ": "+91 100",
		"108":       "108",
	}
	for in, want := range cases {
		if got := NormalizeEmergencyContact(in); got != want {
			t.Fatalf("NormalizeEmergencyContact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFixedRecords(t *testing.T) {
	hl := Helplines()
	if len(hl) != 3 || hl[0].Number != "0120 662 9999" || !hl[0].Primary || hl[1].Number != "100" || hl[2].Number != "102" {
		t.Fatalf("Helplines = %+v", hl)
	}
	if d := NearbyDoctor(); d.Name != "Dr. Aarav Sharma" || Digits(d.Phone) == "" {
		t.Fatalf("NearbyDoctor = %+v", d)
	}
}
