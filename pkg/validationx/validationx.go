package validationx

import (
	"fmt"
	"unicode"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"

	"gitlab.com/ucmsv2/emailverify/pkg/i18nx"
)

const (
	MaxIdentityLength = 128
	MaxHandleLength   = 128
	MaxEmailLength    = 254
)

var ErrInvalidIdentity = validation.NewError(
	i18nx.ValidationIsIdentity,
	"must not contain whitespace or control characters",
)

var (
	EmailRules = []validation.Rule{
		validation.Required,
		validation.Length(3, MaxEmailLength),
		is.EmailFormat,
	}

	IdentityRules = []validation.Rule{
		validation.Required,
		validation.Length(1, MaxIdentityLength),
		IsIdentity,
	}

	HandleRules = []validation.Rule{
		validation.Length(0, MaxHandleLength),
	}

	// BlacklistEntryRules accept ids, handles and emails alike.
	BlacklistEntryRules = []validation.Rule{
		validation.Required,
		validation.Length(1, MaxEmailLength),
	}
)

// CodeRules validate a one-time code of exactly length digits.
func CodeRules(length int) []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(length, length),
		is.Digit,
	}
}

var IsIdentity = validation.By(func(value any) error {
	s, ok := value.(string)
	if !ok {
		if st, isStringer := value.(fmt.Stringer); isStringer {
			s = st.String()
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidIdentity
		}
	}
	return nil
})
