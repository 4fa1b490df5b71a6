package generator

import (
	"encoding/json"
	"strings"

	"docsmith-worker/pkg/models"
)

// ResponseKind distingue les trois formes de réponse acceptées du service
// de génération.
type ResponseKind int

const (
	// KindStructured: objet JSON portant un champ "html"
	KindStructured ResponseKind = iota
	// KindMarkup: corps brut qui ressemble à un document HTML
	KindMarkup
)

// Result est le contenu extrait d'une réponse de génération.
type Result struct {
	Kind      ResponseKind
	HTML      string
	ProjectID string
	Payload   models.JSON
}

// Classify interprète le corps d'une réponse du service de génération.
// La politique de détection vit entièrement ici: structuré d'abord, sinon
// sniffing de markup, sinon ErrInvalidResponse.
func Classify(body []byte) (*Result, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		if html, ok := payload["html"].(string); ok && html != "" {
			result := &Result{
				Kind:    KindStructured,
				HTML:    html,
				Payload: models.JSON(payload),
			}
			if projectID, ok := payload["projectId"].(string); ok {
				result.ProjectID = projectID
			}
			return result, nil
		}
		// JSON valide mais sans contenu exploitable
		return nil, ErrInvalidResponse
	}

	if looksLikeMarkup(body) {
		return &Result{Kind: KindMarkup, HTML: string(body)}, nil
	}

	return nil, ErrInvalidResponse
}

func looksLikeMarkup(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return true
	}
	if strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") {
		return true
	}

	// Paire de balises quelque part dans le corps
	open := strings.Index(trimmed, "<")
	if open >= 0 && strings.Index(trimmed[open:], ">") > 0 {
		return true
	}

	return false
}
