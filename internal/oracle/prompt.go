package oracle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// verdictArray matches the outermost JSON array in a completion, which models
// often wrap in prose or code fences.
var verdictArray = regexp.MustCompile(`(?s)\[.*\]`)

type userContext struct {
	PurchaseHistory []domain.PurchaseEvent `json:"purchase_history"`
	CartItems       []domain.CartSignal    `json:"cart_items"`
	Reviews         []domain.ReviewSignal  `json:"reviews"`
}

type productContext struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	DemandScore float64  `json:"demand_score"`
	Tags        []string `json:"tags"`
}

const promptTemplate = `Analyze the user's behavior and recommend products from the available list.

User Behavior:
%s

Available Products:
%s

Provide recommendations based on:
1. Purchase patterns
2. Price preferences
3. Category interests
4. Review sentiments
5. Current trends

Return a JSON array of recommended product IDs with scores (0-1):
[
    {"product_id": 123, "score": 0.8, "reason": "matches purchase history"},
    ...
]

Limit to top %d recommendations.`

func buildPrompt(req domain.OracleRequest, maxPicks int) (string, error) {
	user := userContext{
		PurchaseHistory: nonNil(req.Purchases),
		CartItems:       nonNil(req.Cart),
		Reviews:         nonNil(req.Reviews),
	}

	products := make([]productContext, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		category := c.CategoryName
		if category == "" {
			category = "Unknown"
		}
		products = append(products, productContext{
			ID:          c.ID,
			Name:        c.Name,
			Price:       c.Price,
			Category:    category,
			DemandScore: c.DemandScore,
			Tags:        nonNil(c.Tags),
		})
	}

	userJSON, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal user context: %w", err)
	}
	productsJSON, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal product context: %w", err)
	}

	return fmt.Sprintf(promptTemplate, userJSON, productsJSON, maxPicks), nil
}

// parseVerdicts extracts the verdict array from completion text. Numbers are
// kept as json.Number so integer ids can be told apart from fractional ones.
func parseVerdicts(text string) ([]domain.OracleVerdict, error) {
	raw := verdictArray.FindString(strings.TrimSpace(text))
	if raw == "" {
		return nil, malformed("no JSON array in completion", nil)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, malformed("decode verdict array", err)
	}

	verdicts := make([]domain.OracleVerdict, 0, len(entries))
	for _, entry := range entries {
		var v domain.OracleVerdict
		dec := json.NewDecoder(strings.NewReader(string(entry)))
		dec.UseNumber()
		// entries that are not objects are skipped, not fatal
		if err := dec.Decode(&v); err != nil {
			continue
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
