package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"gitlab.com/ucmsv2/emailverify/internal/domain/settings"
	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/ctxs"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/tests/integration/framework"
)

type VerificationSuite struct {
	TestSuite
}

func TestVerificationSuite(t *testing.T) {
	suite.Run(t, new(VerificationSuite))
}

func (s *VerificationSuite) TestHappyPath() {
	s.SetCredential("verified-role")

	s.Start("1001", "alice@example.com").AssertSuccess(http.StatusAccepted)
	s.AssertState("1001", verification.StatePending)

	code := s.LastCode("alice@example.com")
	s.Len(code, verification.CodeLength)

	s.Submit("1001", code).AssertSuccess(http.StatusOK)
	s.AssertState("1001", verification.StateVerified)
	s.App().Credential.
		AssertGrantCount(s.T(), 1).
		AssertGranted(s.T(), "1001", settings.CredentialID("verified-role"))

	var body struct {
		Verification struct {
			Identity string `json:"identity"`
			State    string `json:"state"`
			Verified bool   `json:"verified"`
			Email    string `json:"email"`
			Code     string `json:"code"`
		} `json:"verification"`
	}
	s.HTTP.Do(s.T(), s.Bridge(http.MethodGet, "/v1/verifications/1001").Build()).
		AssertSuccess(http.StatusOK).
		ParseJSON(&body)
	s.Equal("verified", body.Verification.State)
	s.True(body.Verification.Verified)
	s.Empty(body.Verification.Code)
	s.NotEqual("alice@example.com", body.Verification.Email)
}

func (s *VerificationSuite) TestWrongCode() {
	s.SetCredential("verified-role")
	s.Start("1002", "bob@example.com").AssertSuccess(http.StatusAccepted)
	code := s.LastCode("bob@example.com")

	s.Submit("1002", wrongCode(code)).AssertErrorCode(http.StatusUnprocessableEntity, string(errorx.CodeInvalidCode))
	s.AssertState("1002", verification.StatePending)

	// the record stays usable after a miss
	s.Submit("1002", code).AssertSuccess(http.StatusOK)
	s.AssertState("1002", verification.StateVerified)
}

func (s *VerificationSuite) TestVerifiedWithoutCredentialReportsConflict() {
	s.Start("1003", "carol@example.com").AssertSuccess(http.StatusAccepted)

	s.Submit("1003", s.LastCode("carol@example.com")).
		AssertErrorCode(http.StatusConflict, string(errorx.CodeNoCredentialConfigured))
	s.AssertState("1003", verification.StateVerified)
	s.App().Credential.AssertGrantCount(s.T(), 0)
}

func (s *VerificationSuite) TestSubmitAfterVerified() {
	s.SetCredential("verified-role")
	s.Start("1004", "dave@example.com").AssertSuccess(http.StatusAccepted)
	code := s.LastCode("dave@example.com")
	s.Submit("1004", code).AssertSuccess(http.StatusOK)

	s.Submit("1004", code).AssertErrorCode(http.StatusOK, string(errorx.CodeAlreadyVerified))
	s.App().Credential.AssertGrantCount(s.T(), 1)
}

func (s *VerificationSuite) TestSubmitWithoutStart() {
	s.Submit("1005", "123456").AssertErrorCode(http.StatusNotFound, string(errorx.CodeNotFound))
}

func (s *VerificationSuite) TestResendInvalidatesPreviousCode() {
	s.SetCredential("verified-role")
	s.Start("1006", "erin@example.com").AssertSuccess(http.StatusAccepted)
	first := s.LastCode("erin@example.com")

	s.Resend("1006").AssertSuccess(http.StatusAccepted)
	s.App().Notifier.AssertDeliveryCount(s.T(), 2)
	second := s.LastCode("erin@example.com")

	if first != second {
		s.Submit("1006", first).AssertErrorCode(http.StatusUnprocessableEntity, string(errorx.CodeInvalidCode))
	}
	s.Submit("1006", second).AssertSuccess(http.StatusOK)
}

func (s *VerificationSuite) TestResendWithoutPending() {
	s.Resend("1007").AssertErrorCode(http.StatusNotFound, string(errorx.CodeNotFound))
	s.App().Notifier.AssertNoDeliveries(s.T())
}

func (s *VerificationSuite) TestRestartReplacesEmail() {
	s.Start("1008", "old@example.com").AssertSuccess(http.StatusAccepted)
	s.Start("1008", "new@example.com").AssertSuccess(http.StatusAccepted)

	rec, err := s.App().VerificationRepo.GetVerification(s.T().Context(), "1008")
	s.Require().NoError(err)
	s.Equal("new@example.com", rec.Email())
	s.Equal(s.LastCode("new@example.com"), rec.Code())
}

func (s *VerificationSuite) TestBlacklistedEmailIsBlocked() {
	s.HTTP.Do(s.T(), s.Admin(http.MethodPut, "/v1/admin/blacklist/Spam@Example.com").Build()).
		AssertSuccess(http.StatusOK)

	s.Start("1009", "spam@example.com").AssertErrorCode(http.StatusForbidden, string(errorx.CodeBlocked))
	s.AssertNoRecord("1009")
	s.App().Notifier.AssertNoDeliveries(s.T())

	var list struct {
		Entries []string `json:"entries"`
	}
	s.HTTP.Do(s.T(), s.Admin(http.MethodGet, "/v1/admin/blacklist").Build()).
		AssertSuccess(http.StatusOK).
		ParseJSON(&list)
	s.Equal([]string{"spam@example.com"}, list.Entries)

	s.HTTP.Do(s.T(), s.Admin(http.MethodDelete, "/v1/admin/blacklist/spam@example.com").Build()).
		AssertSuccess(http.StatusOK)
	s.Start("1009", "spam@example.com").AssertSuccess(http.StatusAccepted)
}

func (s *VerificationSuite) TestValidation() {
	s.Start("", "alice@example.com").AssertErrorCode(http.StatusBadRequest, string(errorx.CodeValidationFailed))
	s.Start("1010", "not-an-email").AssertErrorCode(http.StatusBadRequest, string(errorx.CodeValidationFailed))

	s.HTTP.Do(s.T(), s.Bridge(http.MethodPost, "/v1/verifications/start").
		WithJSON(map[string]any{"identity": "1010", "unknown": true}).
		Build()).
		AssertErrorCode(http.StatusBadRequest, string(errorx.CodeMalformedJSON))
}

func (s *VerificationSuite) TestDevCodeRoute() {
	s.Start("1011", "frank@example.com").AssertSuccess(http.StatusAccepted)

	var body struct {
		Code string `json:"code"`
	}
	s.HTTP.Do(s.T(), framework.NewRequest(http.MethodGet, "/dev/verifications/1011/code").Build()).
		AssertSuccess(http.StatusOK).
		ParseJSON(&body)
	s.Equal(s.LastCode("frank@example.com"), body.Code)
}

func (s *VerificationSuite) TestMembershipEventRevokes() {
	s.SetCredential("verified-role")
	s.Start("1012", "gina@example.com").AssertSuccess(http.StatusAccepted)
	s.Submit("1012", s.LastCode("gina@example.com")).AssertSuccess(http.StatusOK)

	s.HTTP.Do(s.T(), s.Bridge(http.MethodPost, "/v1/membership/events").
		WithJSON(map[string]string{"identity": "1012", "reason": "banned"}).
		Build()).
		AssertSuccess(http.StatusAccepted)

	s.AssertNoRecord("1012")
	s.App().Credential.AssertRevoked(s.T(), "1012")

	// an identity that was never verified is ignored
	s.HTTP.Do(s.T(), s.Bridge(http.MethodPost, "/v1/membership/events").
		WithJSON(map[string]string{"identity": "9999", "reason": "left"}).
		Build()).
		AssertSuccess(http.StatusAccepted)
}

func (s *VerificationSuite) TestAuth() {
	s.HTTP.Do(s.T(), framework.NewRequest(http.MethodPost, "/v1/verifications/start").
		WithJSON(map[string]string{"identity": "1", "email": "a@example.com"}).
		Build()).
		AssertErrorCode(http.StatusUnauthorized, string(errorx.CodeUnauthorized))

	s.HTTP.Do(s.T(), framework.NewRequest(http.MethodGet, "/v1/verifications/1").
		WithBearer("not-a-token").
		Build()).
		AssertErrorCode(http.StatusUnauthorized, string(errorx.CodeInvalidCredentials))

	s.HTTP.Do(s.T(), s.Bridge(http.MethodGet, "/v1/admin/verifications").Build()).
		AssertErrorCode(http.StatusForbidden, string(errorx.CodeForbidden))

	// administrators may use bridge routes
	s.HTTP.Do(s.T(), s.Admin(http.MethodPost, "/v1/verifications/start").
		WithJSON(map[string]string{"identity": "1013", "email": "h@example.com"}).
		Build()).
		AssertSuccess(http.StatusAccepted)

	other := MustToken("bridge-2", ctxs.RoleBridge)
	s.HTTP.Do(s.T(), framework.NewRequest(http.MethodGet, "/v1/verifications/1013").WithBearer(other).Build()).
		AssertSuccess(http.StatusOK)
}

func (s *VerificationSuite) TestHealthAndMetrics() {
	s.HTTP.Do(s.T(), framework.NewRequest(http.MethodGet, "/healthz").Build()).
		AssertSuccess(http.StatusOK)

	s.Start("1014", "ivan@example.com").AssertSuccess(http.StatusAccepted)

	res := s.HTTP.Do(s.T(), framework.NewRequest(http.MethodGet, "/metrics").Build()).
		AssertStatus(http.StatusOK)
	s.True(strings.Contains(res.Body.String(), `emailverify_operations_total{operation="start",outcome="ok"} 1`))
}
