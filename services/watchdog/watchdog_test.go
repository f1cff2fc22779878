package watchdog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/clessn/scrapessn/lib/scrapers/gnod"
	"github.com/clessn/scrapessn/services/crawler"

	"github.com/stretchr/testify/require"
)

func structuralFailure(ref string) crawler.Failure {
	return crawler.Failure{
		Ref: ref,
		Err: fmt.Errorf("%w: no %q anchors", gnod.ErrStructuralMismatch, "a.S"),
	}
}

func TestNewServiceDefaults(t *testing.T) {
	s := NewService(Options{})
	require.Equal(t, 1, s.config.Threshold)
	require.Equal(t, 6*time.Hour, s.config.Cooldown)

	s = NewService(Options{Threshold: 10, Cooldown: time.Minute})
	require.Equal(t, 10, s.config.Threshold)
	require.Equal(t, time.Minute, s.config.Cooldown)
}

func TestEnabled(t *testing.T) {
	cases := []struct {
		name    string
		options Options
		want    bool
	}{
		{
			name:    "unconfigured",
			options: Options{},
			want:    false,
		},
		{
			name:    "smtp only",
			options: Options{Smtp: SmtpConfig{Server: "smtp.example.com"}},
			want:    false,
		},
		{
			name:    "operator only",
			options: Options{OperatorEmail: "ops@example.com"},
			want:    false,
		},
		{
			name: "both",
			options: Options{
				Smtp:          SmtpConfig{Server: "smtp.example.com"},
				OperatorEmail: "ops@example.com",
			},
			want: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, NewService(c.options).Enabled())
		})
	}
}

func TestShouldAlert(t *testing.T) {
	s := NewService(Options{Threshold: 3})

	require.False(t, s.shouldAlert(crawler.Report{StructureErrors: 2}))
	require.True(t, s.shouldAlert(crawler.Report{StructureErrors: 3}))
	require.True(t, s.shouldAlert(crawler.Report{StructureErrors: 7}))
}

func TestComposeAlert(t *testing.T) {
	s := NewService(Options{Origin: "https://www.music-map.com"})

	report := crawler.Report{
		RunId:           "abcd1234",
		PagesScraped:    10,
		StructureErrors: 2,
		FetchErrors:     1,
		Failed: []crawler.Failure{
			structuralFailure("the+beatles"),
			{Ref: "the+kinks", Err: fmt.Errorf("%w: GET failed", gnod.ErrFetch)},
			structuralFailure("the+who"),
		},
	}
	subject, body := s.composeAlert(report)

	require.Equal(t, "[scrapessn] 2 structural mismatches on https://www.music-map.com", subject)
	require.Contains(t, body, "run abcd1234")
	require.Contains(t, body, "13 pages attempted")
	require.Contains(t, body, "the+beatles")
	require.Contains(t, body, "the+who")
	// fetch errors are routine, they don't belong in the alert
	require.NotContains(t, body, "the+kinks")
}

func TestComposeAlertTruncatesSample(t *testing.T) {
	s := NewService(Options{Origin: "https://www.music-map.com"})

	report := crawler.Report{RunId: "abcd1234", StructureErrors: 8}
	for i := 0; i < 8; i++ {
		report.Failed = append(report.Failed, structuralFailure(fmt.Sprintf("subject+%d", i)))
	}
	_, body := s.composeAlert(report)

	require.Contains(t, body, "subject+4")
	require.NotContains(t, body, "subject+5")
	require.Contains(t, body, "... and 3 more")
}

func TestInspectBelowThreshold(t *testing.T) {
	s := NewService(Options{
		Smtp:          SmtpConfig{Server: "smtp.example.com", Port: 587},
		OperatorEmail: "ops@example.com",
		Threshold:     3,
	})

	err := s.Inspect(context.Background(), crawler.Report{StructureErrors: 2})
	require.Nil(t, err)
	require.True(t, s.lastAlert.IsZero())
}

func TestInspectUnconfigured(t *testing.T) {
	s := NewService(Options{})

	report := crawler.Report{
		RunId:           "abcd1234",
		StructureErrors: 5,
		Failed:          []crawler.Failure{structuralFailure("the+beatles")},
	}
	err := s.Inspect(context.Background(), report)
	require.Nil(t, err)
}

func TestInspectThrottled(t *testing.T) {
	s := NewService(Options{
		Smtp:          SmtpConfig{Server: "smtp.example.com", Port: 587},
		OperatorEmail: "ops@example.com",
	})
	s.lastAlert = time.Now()

	report := crawler.Report{
		RunId:           "abcd1234",
		StructureErrors: 5,
		Failed:          []crawler.Failure{structuralFailure("the+beatles")},
	}
	err := s.Inspect(context.Background(), report)
	require.Nil(t, err)
}
