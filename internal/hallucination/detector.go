// Package hallucination derives fabrication verdicts from verification
// outcomes. A citation that does not resolve is treated as a likely
// fabricated reference.
package hallucination

import (
	"net/http"

	"github.com/sells-group/citation-intel/internal/model"
)

// Hallucination types.
const (
	TypeFakeDomain  = "fake_domain"
	TypeUnreachable = "unreachable"
)

// Derive returns the verdict for a verification outcome. IsHallucinated is
// exactly !Reachable; the type is fake_domain for a 404 and unreachable for
// any other failure.
func Derive(v model.Verification) model.HallucinationVerdict {
	if v.Reachable {
		return model.HallucinationVerdict{}
	}
	t := TypeUnreachable
	if v.StatusCode != nil && *v.StatusCode == http.StatusNotFound {
		t = TypeFakeDomain
	}
	return model.HallucinationVerdict{IsHallucinated: true, Type: &t}
}
