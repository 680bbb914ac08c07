package handler_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/http/handler"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/service"
)

var _ = Describe("IntegrationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockIntegrationService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockIntegrationService{}
		h := handler.NewIntegrationHandler(svc)
		router.GET("/integrations", h.Status)
		router.GET("/integrations/callback", h.Callback)
		router.GET("/integrations/:provider/authorize", h.Authorize)
		router.DELETE("/integrations/:provider", h.Disconnect)
	})

	It("lists provider status", func() {
		svc.statusFn = func(ctx context.Context) []service.ProviderStatus {
			return []service.ProviderStatus{{Provider: model.ProviderGitLab, Connected: true}}
		}
		w := do(router, http.MethodGet, "/integrations", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"providers":[{"provider":"gitlab","connected":true}]}`))
	})

	It("returns the auth url", func() {
		var asked model.Provider
		svc.authURLFn = func(ctx context.Context, p model.Provider) (string, error) {
			asked = p
			return "https://gitlab.example/oauth/authorize?state=s", nil
		}
		w := do(router, http.MethodGet, "/integrations/gitlab/authorize", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(asked).To(Equal(model.ProviderGitLab))
		Expect(w.Body.String()).To(ContainSubstring("state=s"))
	})

	It("redirects when asked to", func() {
		w := do(router, http.MethodGet, "/integrations/gitlab/authorize?redirect=true", nil)
		Expect(w.Code).To(Equal(http.StatusFound))
		Expect(w.Header().Get("Location")).To(Equal("https://auth.example/authorize"))
	})

	It("returns 404 for unknown providers", func() {
		svc.authURLFn = func(ctx context.Context, p model.Provider) (string, error) {
			return "", fmt.Errorf("%w: %s", service.ErrUnknownProvider, p)
		}
		w := do(router, http.MethodGet, "/integrations/slack/authorize", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	DescribeTable("callback outcomes",
		func(err error, wantCode int) {
			svc.callbackFn = func(ctx context.Context, state, code string) (model.Provider, error) {
				Expect(state).To(Equal("st"))
				Expect(code).To(Equal("cd"))
				return model.ProviderGmail, err
			}
			w := do(router, http.MethodGet, "/integrations/callback?state=st&code=cd", nil)
			Expect(w.Code).To(Equal(wantCode))
		},
		Entry("connected", nil, http.StatusOK),
		Entry("unknown state", service.ErrInvalidState, http.StatusBadRequest),
		Entry("exchange failed", service.ErrExchangeFailed, http.StatusBadGateway),
	)

	It("reports a denied consent without calling the service", func() {
		svc.callbackFn = func(ctx context.Context, state, code string) (model.Provider, error) {
			Fail("callback should not be called")
			return "", nil
		}
		w := do(router, http.MethodGet, "/integrations/callback?error=access_denied", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("disconnects a provider", func() {
		var got model.Provider
		svc.disconnectFn = func(ctx context.Context, p model.Provider) error {
			got = p
			return nil
		}
		w := do(router, http.MethodDelete, "/integrations/gmail", nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(got).To(Equal(model.ProviderGmail))
	})
})
