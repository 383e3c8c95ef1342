package verification

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/rentiva/veriprop/internal/models"
	"github.com/rentiva/veriprop/internal/secure"
)

// Documents reach us from different eras and upload paths: newly
// uploaded records carry an encrypted number, historical ones a plain
// value, form uploads put the number in metadata, and bare file drops
// sometimes only have it embedded in the filename. The extractor
// absorbs that variability so the engine has one contract: a document
// record in, a usable identifier or an explicit not-found out.

var digitRun = regexp.MustCompile(`\d{11,}`)

// ExtractNumber resolves the plain identifier for a document, trying
// strategies in order of trustworthiness. A corrupt ciphertext falls
// through to the next strategy instead of aborting; it only lowers the
// chance of extraction, it is not a pipeline error. An empty return
// means no number could be found anywhere.
func ExtractNumber(doc *models.VerificationDocument, enc *secure.Encryptor) string {
	if doc.DocumentNumber.Valid && doc.DocumentNumber.String != "" {
		stored := doc.DocumentNumber.String

		if secure.IsEncrypted(stored) {
			if enc != nil {
				if plain, err := enc.Decrypt(stored); err == nil && plain != "" {
					return plain
				}
			}
		} else {
			return stored
		}
	}

	if number := numberFromMetadata(doc); number != "" {
		return number
	}

	if number := digitRun.FindString(doc.FileName); number != "" {
		return number
	}

	return ""
}

func numberFromMetadata(doc *models.VerificationDocument) string {
	if !doc.Metadata.Valid || doc.Metadata.String == "" {
		return ""
	}

	var metadata map[string]any
	if err := json.Unmarshal([]byte(doc.Metadata.String), &metadata); err != nil {
		return ""
	}

	for _, key := range []string{"number", "documentNumber", "document_number"} {
		switch value := metadata[key].(type) {
		case string:
			if value != "" {
				return value
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64)
		}
	}

	return ""
}
