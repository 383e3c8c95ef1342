package verification

import (
	"strings"

	"github.com/rentiva/veriprop/internal/models"
)

// Uploaders are sloppy about document types: a licence arrives typed
// "driver" or as a bare file called "my-license-scan.jpg". Selection
// therefore tries an exact type match first and then falls back to
// keyword matches against both the declared type and the filename.
var typeKeywords = map[string][]string{
	models.DocumentTypeNIN:            {"nin", "national"},
	models.DocumentTypeBVN:            {"bvn"},
	models.DocumentTypePassport:       {"passport"},
	models.DocumentTypeDriversLicense: {"driver", "license", "licence", "dl"},
	models.DocumentTypeVotersCard:     {"voter", "vin"},
	models.DocumentTypeUtilityBill:    {"utility", "bill"},
	models.DocumentTypeProofOfAddress: {"address"},
}

// CanonicalDocumentType maps a loosely-declared type onto one of the
// known document type constants, or returns it unchanged when nothing
// matches.
func CanonicalDocumentType(declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))

	if _, known := typeKeywords[declared]; known {
		return declared
	}

	for canonical, keywords := range typeKeywords {
		for _, keyword := range keywords {
			if strings.Contains(declared, keyword) {
				return canonical
			}
		}
	}

	return declared
}

// SelectDocument picks the document satisfying the wanted type out of
// the available ones, or nil when none match.
func SelectDocument(wanted string, docs []models.VerificationDocument) *models.VerificationDocument {
	canonical := CanonicalDocumentType(wanted)

	for i := range docs {
		if docs[i].DocumentType == canonical {
			return &docs[i]
		}
	}

	keywords := typeKeywords[canonical]
	if len(keywords) == 0 {
		keywords = []string{canonical}
	}

	for i := range docs {
		declared := strings.ToLower(docs[i].DocumentType)
		fileName := strings.ToLower(docs[i].FileName)

		for _, keyword := range keywords {
			if strings.Contains(declared, keyword) || strings.Contains(fileName, keyword) {
				return &docs[i]
			}
		}
	}

	return nil
}
