package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleLeads() []models.SocialLead {
	found := time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC)
	return []models.SocialLead{
		{
			ID:             "lead-1",
			Platform:       models.PlatformReddit,
			Status:         models.LeadNew,
			MatchScore:     0.87,
			Subreddit:      "Austin",
			Author:         "brow_curious",
			PostTitle:      "Best brow lamination in Austin?",
			PostURL:        "https://reddit.com/r/Austin/comments/abc",
			MatchReasoning: "Asking for a local brow artist",
			DraftedReply:   "We'd love to help!",
			CreatedAt:      found,
		},
		{
			ID:         "lead-2",
			Platform:   models.PlatformGoogleMaps,
			Status:     models.LeadApproved,
			MatchScore: 0.6,
			Subreddit:  "Glow Salon",
			Author:     "Jamie R.",
			CreatedAt:  found.Add(time.Hour),
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleLeads()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "lead-1", rows[1][0])
	assert.Equal(t, "reddit", rows[1][1])
	assert.Equal(t, "Best brow lamination in Austin?", rows[1][6])
	assert.Equal(t, "google_maps", rows[2][1])
	assert.Equal(t, "Glow Salon", rows[2][4])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLeads()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, headers, records[0])
	assert.Equal(t, "0.87", records[1][3])
	assert.Equal(t, "2026-03-06T14:00:00Z", records[1][11])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "pdf", nil)
	assert.Error(t, err)
	assert.False(t, Valid("pdf"))
	assert.True(t, Valid(FormatCSV))
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "social-leads-nails-by-nina-2026-10-14.xlsx", Filename("nails-by-nina", FormatXLSX, now))
	assert.Equal(t, "text/csv", ContentType(FormatCSV))
}
