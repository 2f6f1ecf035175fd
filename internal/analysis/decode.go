package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/newthinker/quantsafe/internal/core"
)

// FallbackReasoning is the only user-visible trace of a failed analysis.
const FallbackReasoning = "Analysis temporarily unavailable due to parsing error."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// reply is the raw model output before it becomes a core.SignalResponse.
type reply struct {
	Signal      string   `json:"signal" validate:"required,oneof=BUY SELL HOLD NEUTRAL"`
	Confidence  *float64 `json:"confidence" validate:"required,gte=0,lte=100"`
	Reasoning   string   `json:"reasoning" validate:"required,notblank"`
	TargetPrice string   `json:"targetPrice" validate:"required,notblank"`
	RiskLevel   string   `json:"riskLevel" validate:"required,oneof=LOW MEDIUM HIGH"`
}

// Fallback returns the fixed response used whenever analysis fails.
func Fallback(now time.Time) core.SignalResponse {
	return core.SignalResponse{
		Signal:      core.SignalNeutral,
		Confidence:  0,
		Reasoning:   FallbackReasoning,
		TargetPrice: "N/A",
		RiskLevel:   core.RiskMedium,
		Timestamp:   now,
	}
}

// Decode turns a model reply body into a SignalResponse stamped with now.
// Errors carry core.ErrResponseMalformed when the body is not JSON and
// core.ErrResponseInvalid when it is JSON but breaks the contract.
func Decode(body string, now time.Time) (core.SignalResponse, error) {
	body = stripFence(body)
	if body == "" {
		return core.SignalResponse{}, core.WrapError(core.ErrResponseMalformed, errors.New("empty body"))
	}

	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return core.SignalResponse{}, core.WrapError(core.ErrResponseInvalid, err)
		}
		return core.SignalResponse{}, core.WrapError(core.ErrResponseMalformed, err)
	}

	if err := validate.Struct(r); err != nil {
		return core.SignalResponse{}, core.WrapError(core.ErrResponseInvalid, describe(err))
	}

	sig := core.SignalResponse{
		Signal:      core.MarketSignal(r.Signal),
		Confidence:  *r.Confidence,
		Reasoning:   r.Reasoning,
		TargetPrice: r.TargetPrice,
		RiskLevel:   core.RiskLevel(r.RiskLevel),
		Timestamp:   now,
	}
	if !sig.IsValid() {
		return core.SignalResponse{}, core.WrapError(core.ErrResponseInvalid, errors.New("decoded signal breaks invariants"))
	}
	return sig, nil
}

// stripFence removes a Markdown code fence some models wrap JSON in,
// along with its language tag, which may share a line with the JSON.
func stripFence(body string) string {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimLeftFunc(body, unicode.IsLetter)
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
