package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const defaultDocumentTimeout = 120 * time.Second

// DocumentExtractor pulls fiche fields out of a scanned document (OCR text),
// typically a photographed défauts sheet. The extraction prompt targets the
// défauts layout; other fiche types are filled conversationally instead.
type DocumentExtractor struct {
	model   model.BaseChatModel
	timeout time.Duration
}

type DocumentOption func(*DocumentExtractor)

func WithDocumentTimeout(d time.Duration) DocumentOption {
	return func(e *DocumentExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func NewDocumentExtractor(cm model.BaseChatModel, opts ...DocumentOption) *DocumentExtractor {
	e := &DocumentExtractor{
		model:   cm,
		timeout: defaultDocumentTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

const documentSystemPrompt = `Tu es un expert en extraction d'informations depuis des documents techniques de chantiers photovoltaïques.
Tu reçois le texte OCR d'une fiche de relevés des défauts et tu retournes les informations sous forme de JSON structuré.
Tu retournes UNIQUEMENT du JSON valide, sans texte avant ou après, sans balises markdown.`

const documentUserPromptFormat = `Voici le texte OCR d'une fiche de relevés des défauts de mise en service :

---
%s
---

Extrait les informations suivantes et retourne-les en JSON :

{
  "mise_en_service": {
    "nom_chantier": "nom du chantier ou null",
    "ao": "numéro d'appel d'offres ou null",
    "num_chantier": "numéro de chantier ou null",
    "nom_technicien": "nom du technicien ou null",
    "date": "date au format JJ/MM/AAAA ou null",
    "signature": "présente/absente/null"
  },
  "tableau_defauts": [
    {
      "localisation": "nom de la section du tableau",
      "anomalies": "anomalies relevées, RAS si rien, null si illisible",
      "temps_passe": "temps passé ou null"
    }
  ]
}

Règles :
- Si une case du tableau est vide ou illisible, mets null
- Si une case contient "RAS", "rien", une croix ou un tiret, mets "RAS"
- Garde les localisations exactement comme écrites sur la fiche
- Ne retourne QUE le JSON`

// Extract runs the NER prompt against documentText and returns the decoded
// payload, ready for fiche.FromExtraction.
func (e *DocumentExtractor) Extract(ctx context.Context, documentText string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(documentSystemPrompt),
		schema.UserMessage(fmt.Sprintf(documentUserPromptFormat, documentText)),
	})
	if err != nil {
		return nil, fmt.Errorf("extract: generate document extraction: %w", err)
	}
	return DecodeJSONResponse(resp.Content)
}
