package contact

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultEmergencyContact is used until the operator stores a number.
const DefaultEmergencyContact = "112"

// Doctor is a clinic the operator can reach.
type Doctor struct {
	Name       string
	Phone      string
	Speciality string
	Lat        float64
	Lon        float64
	DistanceKm float64
}

// Helpline is a fixed public number.
type Helpline struct {
	Label   string
	Number  string
	Primary bool
}

// NearbyDoctor returns the clinic shown by the contacts view. There is no
// lookup service; the record is fixed.
func NearbyDoctor() Doctor {
	return Doctor{
		Name:       "Dr. Aarav Sharma",
		Phone:      "+91 98110 45210",
		Speciality: "Neurologist · General Physician",
		Lat:        28.6412,
		Lon:        77.3719,
		DistanceKm: 0.65,
	}
}

// Helplines lists the emergency numbers in display order.
func Helplines() []Helpline {
	return []Helpline{
		{Label: "Hospital", Number: "0120 662 9999", Primary: true},
		{Label: "Police", Number: "100"},
		{Label: "Ambulance", Number: "102"},
	}
}

// Digits strips everything but ASCII digits.
func Digits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// NormalizeEmergencyContact trims s and falls back to the default when it
// holds no digits.
func NormalizeEmergencyContact(s string) string {
	s = strings.TrimSpace(s)
	if Digits(s) == "" {
		return DefaultEmergencyContact
	}
	return s
}

// TelURL returns a tel: link with whitespace removed.
func TelURL(phone string) string {
	return "tel:" + strings.Join(strings.Fields(phone), "")
}

// WhatsAppMessage is the greeting sent to a clinic.
func WhatsAppMessage(name string) string {
	return fmt.Sprintf("Hello %s, I found your clinic via Neuro Glove Assistance. I need assistance.", name)
}

// WhatsAppURL builds a chat link for d. mobile selects the wa.me form;
// otherwise the WhatsApp Web form is used.
func WhatsAppURL(d Doctor, mobile bool) (string, error) {
	number := Digits(d.Phone)
	if number == "" {
		return "", fmt.Errorf("no phone number for %s", d.Name)
	}
	msg := url.QueryEscape(WhatsAppMessage(d.Name))
	if mobile {
		return "https://wa.me/" + number + "?text=" + msg, nil
	}
	return "https://web.whatsapp.com/send?phone=" + number + "&text=" + msg, nil
}

// MapsURL returns a directions link to d.
func MapsURL(d Doctor) string {
	v := url.Values{}
	v.Set("api", "1")
	v.Set("destination", strconv.FormatFloat(d.Lat, 'f', -1, 64)+","+strconv.FormatFloat(d.Lon, 'f', -1, 64))
	if d.Name != "" {
		v.Set("destination_name", d.Name)
	}
	return "https://www.google.com/maps/dir/?" + v.Encode()
}

// FormatDistance renders metres below one kilometre and one decimal above.
func FormatDistance(km float64) string {
	if math.IsNaN(km) || km < 0 {
		return ""
	}
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

// Initials returns the upper-cased first letters of the first two words.
func Initials(name string) string {
	var b strings.Builder
	for i, word := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
