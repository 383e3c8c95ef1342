package verification

import (
	"testing"

	"github.com/rentiva/veriprop/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCanonicalDocumentType(t *testing.T) {
	tests := []struct {
		declared string
		want     string
	}{
		{"nin", models.DocumentTypeNIN},
		{" NIN ", models.DocumentTypeNIN},
		{"drivers_license", models.DocumentTypeDriversLicense},
		{"driver", models.DocumentTypeDriversLicense},
		{"driving licence", models.DocumentTypeDriversLicense},
		{"passport", models.DocumentTypePassport},
		{"voters card", models.DocumentTypeVotersCard},
		{"something_else", "something_else"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, CanonicalDocumentType(tt.declared), "declared %q", tt.declared)
	}
}

func TestSelectDocument_ExactTypeWins(t *testing.T) {
	docs := []models.VerificationDocument{
		{ID: "a", DocumentType: models.DocumentTypePassport, FileName: "passport.jpg"},
		{ID: "b", DocumentType: models.DocumentTypeNIN, FileName: "nin.jpg"},
	}

	got := SelectDocument("nin", docs)
	require.NotNil(t, got)
	require.Equal(t, "b", got.ID)
}

func TestSelectDocument_KeywordOnFilename(t *testing.T) {
	docs := []models.VerificationDocument{
		{ID: "a", DocumentType: "upload", FileName: "my-license-scan.jpg"},
	}

	got := SelectDocument("drivers_license", docs)
	require.NotNil(t, got)
	require.Equal(t, "a", got.ID)
}

func TestSelectDocument_KeywordOnDeclaredType(t *testing.T) {
	docs := []models.VerificationDocument{
		{ID: "a", DocumentType: "voter's card", FileName: "card.jpg"},
	}

	got := SelectDocument("voters_card", docs)
	require.NotNil(t, got)
	require.Equal(t, "a", got.ID)
}

func TestSelectDocument_NoMatch(t *testing.T) {
	docs := []models.VerificationDocument{
		{ID: "a", DocumentType: models.DocumentTypePassport, FileName: "passport.jpg"},
	}

	require.Nil(t, SelectDocument("bvn", docs))
	require.Nil(t, SelectDocument("bvn", nil))
}
