package integration

import (
	"net/http"

	"github.com/stretchr/testify/suite"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/ctxs"
	"gitlab.com/ucmsv2/emailverify/tests/integration/framework"
)

type TestSuite struct {
	suite.Suite
	app        *App
	appArgs    AppArgs
	HTTP       *framework.HTTPHelper
	BridgeAuth string
	AdminAuth  string
}

func (s *TestSuite) SetupSuite() {
	s.BridgeAuth = MustToken("bridge-1", ctxs.RoleBridge)
	s.AdminAuth = MustToken("admin-1", ctxs.RoleAdmin)
}

// SetupTest gives every test a fresh app so stores and limiters never leak
// between tests.
func (s *TestSuite) SetupTest() {
	s.app = NewApp(s.appArgs)
	s.HTTP = framework.NewHTTPHelper(s.app.HTTPHandler)
}

func (s *TestSuite) TearDownTest() {
	if s.app != nil {
		s.app.Limiter.Stop()
	}
}

func (s *TestSuite) App() *App {
	return s.app
}

func (s *TestSuite) Bridge(method, path string) *framework.RequestBuilder {
	return framework.NewRequest(method, path).WithBearer(s.BridgeAuth)
}

func (s *TestSuite) Admin(method, path string) *framework.RequestBuilder {
	return framework.NewRequest(method, path).WithBearer(s.AdminAuth)
}

func (s *TestSuite) Start(identity, email string) *framework.Response {
	return s.HTTP.Do(s.T(), s.Bridge(http.MethodPost, "/v1/verifications/start").
		WithJSON(map[string]string{"identity": identity, "handle": "user-" + identity, "email": email}).
		Build())
}

func (s *TestSuite) Submit(identity, code string) *framework.Response {
	return s.HTTP.Do(s.T(), s.Bridge(http.MethodPost, "/v1/verifications/submit").
		WithJSON(map[string]string{"identity": identity, "code": code}).
		Build())
}

func (s *TestSuite) Resend(identity string) *framework.Response {
	return s.HTTP.Do(s.T(), s.Bridge(http.MethodPost, "/v1/verifications/resend").
		WithJSON(map[string]string{"identity": identity}).
		Build())
}

func (s *TestSuite) SetCredential(id string) {
	s.HTTP.Do(s.T(), s.Admin(http.MethodPut, "/v1/admin/settings/credential").
		WithJSON(map[string]string{"credential_id": id}).
		Build()).
		AssertSuccess(http.StatusOK)
}

// LastCode reads the code that was mailed to address.
func (s *TestSuite) LastCode(address string) string {
	return s.app.Notifier.RequireLastDelivery(s.T(), address).Code
}

func (s *TestSuite) AssertState(identity string, state verification.State) {
	rec, err := s.app.VerificationRepo.GetVerification(s.T().Context(), verification.Identity(identity))
	s.Require().NoError(err)
	s.Equal(state, rec.State())
}

func (s *TestSuite) AssertNoRecord(identity string) {
	_, err := s.app.VerificationRepo.GetVerification(s.T().Context(), verification.Identity(identity))
	s.Require().Error(err)
}
