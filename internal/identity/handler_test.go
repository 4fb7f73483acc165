package identity_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identity Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		repo := NewMockRepository()
		repo.AddProfile("user-x", "auth-x", "org-a", true)
		repo.AddProfile("user-y", "auth-y", "org-a", false)
		repo.AddProfile("user-b", "auth-b", "org-b", true)

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler := identity.NewHandler(transport.NewBaseHandler(logger), identity.NewService(repo, false, logger))

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				caller := identity.Caller{AuthID: "auth-x", ProfileID: "user-x", OrganizationID: "org-a"}
				next.ServeHTTP(w, r.WithContext(identity.ContextWithCaller(r.Context(), caller)))
			})
		})
		router.Get("/organizations/{orgID}/users", handler.ListUsers)
		router.Get("/organizations/{orgID}/users/{profileID}", handler.GetUser)
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	It("lists only profiles of the caller's organization", func() {
		w := get("/organizations/org-a/users")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp identity.ProfilesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		ids := []string{}
		for _, u := range resp.Users {
			ids = append(ids, u.ID)
		}
		Expect(ids).To(ConsistOf("user-x", "user-y"))
	})

	It("answers another organization's listing with not found", func() {
		Expect(get("/organizations/org-b/users").Code).To(Equal(http.StatusNotFound))
	})

	It("renders a foreign profile exactly like a missing one", func() {
		foreign := get("/organizations/org-a/users/user-b")
		missing := get("/organizations/org-a/users/nobody")
		Expect(foreign.Code).To(Equal(http.StatusNotFound))
		Expect(foreign.Body.String()).To(Equal(missing.Body.String()))
	})

	It("returns a single profile", func() {
		w := get("/organizations/org-a/users/user-y")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp identity.ProfileResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.IsActive).To(BeFalse())
	})
})
