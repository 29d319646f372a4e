package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/vouch/internal/llm"
	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/worker"
)

const justificationSystem = `You are screening interview quotes as evidence for a business assumption.
Return only the numbers of the quotes that materially support or contradict the assumption.
Ignore quotes that merely mention the topic, describe generic product usage, or express general sentiment.`

const justificationPrompt = `Assumption (%s): %s

Quotes:
%s
Respond with JSON: {"indices": [<1-based quote numbers, most relevant first>]}.
Return {"indices": []} if none qualify.`

// plainIndexList matches a reply that is only integers separated by commas or spaces
var plainIndexList = regexp.MustCompile(`^\d+(?:\s*,\s*\d+|\s+\d+)*$`)

var numberPattern = regexp.MustCompile(`\d+`)

// JustificationStage asks the completion service which candidates matter
type JustificationStage struct {
	provider llm.Provider
	policy   worker.Policy
}

// NewJustificationStage creates the stage. The completion call is retried
// per policy; a reply that cannot be parsed is not.
func NewJustificationStage(provider llm.Provider, policy worker.Policy) *JustificationStage {
	return &JustificationStage{provider: provider, policy: policy}
}

// Apply returns the selected candidates in the order the service ranked
// them. Out-of-range and repeated indices are ignored.
func (s *JustificationStage) Apply(ctx context.Context, a model.Assumption, candidates []model.Quote) ([]model.Quote, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no completion provider", model.ErrFilterService)
	}
	req := llm.CompletionRequest{
		System: justificationSystem,
		Prompt: BuildJustificationPrompt(a, candidates),
		JSON:   true,
	}
	resp, err := worker.Retry(ctx, s.policy, func(ctx context.Context) (*llm.CompletionResponse, error) {
		return s.provider.Complete(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFilterService, err)
	}

	indices, err := ParseIndices(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFilterService, err)
	}

	selected := make([]model.Quote, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 1 || i > len(candidates) || seen[i] {
			continue
		}
		seen[i] = true
		selected = append(selected, candidates[i-1])
	}
	return selected, nil
}

// BuildJustificationPrompt numbers the candidates from 1
func BuildJustificationPrompt(a model.Assumption, candidates []model.Quote) string {
	var b strings.Builder
	for i, q := range candidates {
		fmt.Fprintf(&b, "%d. %q", i+1, q.Text)
		if q.Speaker != "" || q.Role != "" {
			fmt.Fprintf(&b, " (%s)", strings.Trim(q.Speaker+", "+q.Role, ", "))
		}
		b.WriteString("\n")
	}
	return fmt.Sprintf(justificationPrompt, a.AttributeType.DisplayName(), a.Text, b.String())
}

// ParseIndices reads the ordered index list from a completion. It accepts
// {"indices": [...]}, a bare JSON array, or a reply made only of integers
// separated by commas or spaces. Any other prose is an error.
func ParseIndices(text string) ([]int, error) {
	if raw, err := llm.ExtractJSON(text); err == nil {
		if strings.HasPrefix(raw, "[") {
			var arr []int
			if err := json.Unmarshal([]byte(raw), &arr); err != nil {
				return nil, fmt.Errorf("decode index array: %w", err)
			}
			return arr, nil
		}
		var obj struct {
			Indices []int `json:"indices"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("decode index object: %w", err)
		}
		if obj.Indices == nil {
			return nil, fmt.Errorf("response has no indices field")
		}
		return obj.Indices, nil
	}

	trimmed := strings.TrimSpace(text)
	if !plainIndexList.MatchString(trimmed) {
		return nil, fmt.Errorf("no index list in response: %.80q", text)
	}
	matches := numberPattern.FindAllString(trimmed, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
