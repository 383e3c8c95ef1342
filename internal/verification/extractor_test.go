package verification

import (
	"database/sql"
	"testing"

	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/secure"

	"github.com/stretchr/testify/require"
)

const testKey = "1111111111111111111111111111111111111111111111111111111111111111"

func testEncryptor(t *testing.T) *secure.Encryptor {
	t.Helper()

	enc, err := secure.New(testKey)
	require.NoError(t, err)
	return enc
}

func docWithNumber(value string) *models.VerificationDocument {
	return &models.VerificationDocument{
		DocumentNumber: sql.NullString{String: value, Valid: value != ""},
	}
}

func TestExtractNumber_EncryptedValue(t *testing.T) {
	enc := testEncryptor(t)

	stored, err := enc.Encrypt("12345678901")
	require.NoError(t, err)

	got := ExtractNumber(docWithNumber(stored), enc)
	require.Equal(t, "12345678901", got)
}

func TestExtractNumber_PlaintextLegacyValue(t *testing.T) {
	got := ExtractNumber(docWithNumber("98765432109"), testEncryptor(t))
	require.Equal(t, "98765432109", got)
}

func TestExtractNumber_CorruptCiphertextFallsThrough(t *testing.T) {
	enc := testEncryptor(t)

	stored, err := enc.Encrypt("12345678901")
	require.NoError(t, err)

	// encrypt under a different key so decryption fails
	otherKey := "2222222222222222222222222222222222222222222222222222222222222222"
	other, err := secure.New(otherKey)
	require.NoError(t, err)

	doc := docWithNumber(stored)
	doc.Metadata = sql.NullString{String: `{"number": "55555555555"}`, Valid: true}

	got := ExtractNumber(doc, other)
	require.Equal(t, "55555555555", got)
}

func TestExtractNumber_MetadataKeys(t *testing.T) {
	for _, raw := range []string{
		`{"number": "11111111111"}`,
		`{"documentNumber": "11111111111"}`,
		`{"document_number": "11111111111"}`,
		`{"number": 11111111111}`,
	} {
		doc := &models.VerificationDocument{
			Metadata: sql.NullString{String: raw, Valid: true},
		}
		require.Equal(t, "11111111111", ExtractNumber(doc, nil), "metadata %s", raw)
	}
}

func TestExtractNumber_MalformedMetadataIgnored(t *testing.T) {
	doc := &models.VerificationDocument{
		Metadata: sql.NullString{String: `{not json`, Valid: true},
		FileName: "scan-70123456789.jpg",
	}

	require.Equal(t, "70123456789", ExtractNumber(doc, nil))
}

func TestExtractNumber_FilenameDigits(t *testing.T) {
	doc := &models.VerificationDocument{FileName: "nin-12345678901-front.png"}
	require.Equal(t, "12345678901", ExtractNumber(doc, nil))

	// ten digits are not enough to be an identifier
	short := &models.VerificationDocument{FileName: "img-1234567890.png"}
	require.Equal(t, "", ExtractNumber(short, nil))
}

func TestExtractNumber_NothingResolvable(t *testing.T) {
	doc := &models.VerificationDocument{FileName: "selfie.jpg"}
	require.Equal(t, "", ExtractNumber(doc, nil))
}
