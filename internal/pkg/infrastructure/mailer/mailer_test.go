package mailer

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestTruncateLeavesShortStringsAlone(t *testing.T) {
	is := is.New(t)

	is.Equal(Truncate("OK: Batteries Charged", MaxSubjectLen), "OK: Batteries Charged")
	is.Equal(Truncate("", MaxSubjectLen), "")
}

func TestTruncateBoundsLongStrings(t *testing.T) {
	is := is.New(t)

	long := strings.Repeat("x", MaxSubjectLen+50)
	got := Truncate(long, MaxSubjectLen)

	is.Equal(len(got), MaxSubjectLen)
	is.Equal(got, long[:MaxSubjectLen])
}

func TestEmptyRecipientSlotsAreSkipped(t *testing.T) {
	is := is.New(t)

	s := NewSMTP("smtp.example.com", 465, "Battery Monitor", "monitor@example.com", "secret",
		[]string{"skipper@example.com", ""})

	is.Equal(len(s.recipients), 1)
	is.Equal(s.recipients[0], "skipper@example.com")
}
