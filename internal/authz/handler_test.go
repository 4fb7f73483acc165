package authz_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/workforce-authz/internal/authz"
	"github.com/frahmantamala/workforce-authz/internal/core/clock"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Authz HTTP", func() {
	var (
		perms  *MockPermissions
		owners *MockOwners
		router chi.Router
		caller identity.Caller
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) string {
		var env errorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env.Error.Code
	}

	BeforeEach(func() {
		perms = NewMockPermissions()
		owners = &MockOwners{rels: map[string][]ownership.Relationship{}}
		caller = identity.Caller{AuthID: "auth-x", ProfileID: "user-x", OrganizationID: "org-a"}

		authorizer := authz.NewAuthorizer(perms, owners, &MockPrimary{}, clock.Fixed{At: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}, discard)
		mw := authz.NewMiddleware(authorizer, discard)
		handler := authz.NewHandler(transport.NewBaseHandler(discard), authorizer, profileDirectory{"user-x": "org-a", "user-y": "org-a", "user-b": "org-b"})
		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(identity.ContextWithCaller(r.Context(), caller)))
			})
		})
		router.Get("/me/authorization", handler.Me)
		router.Post("/organizations/{orgID}/authorize", handler.Authorize)
		router.With(mw.Require(permission.RolesRead)).Get("/organizations/{orgID}/roles", ok)
		router.With(mw.RequireOnObject(ownership.ActionReassign)).Put("/organizations/{orgID}/objects/{objectType}/{objectID}/owner", ok)
	})

	Describe("Require", func() {
		It("passes callers holding the permission", func() {
			perms.set("org-a", "user-x", permission.RolesRead)
			Expect(do(http.MethodGet, "/organizations/org-a/roles", nil).Code).To(Equal(http.StatusNoContent))
		})

		It("rejects callers without it", func() {
			w := do(http.MethodGet, "/organizations/org-a/roles", nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(errorCode(w)).To(Equal("INSUFFICIENT_PERMISSION"))
		})

		It("answers other organizations with not found", func() {
			perms.set("org-a", "user-x", permission.RolesRead)
			w := do(http.MethodGet, "/organizations/org-b/roles", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(errorCode(w)).To(Equal("RESOURCE_NOT_FOUND"))
		})
	})

	Describe("RequireOnObject", func() {
		It("lets the accountable owner through", func() {
			deal, _ := ownership.NewObjectRef("deal", "d-1")
			owners.rels[owners.key(deal, "user-x")] = []ownership.Relationship{ownership.Accountable}
			Expect(do(http.MethodPut, "/organizations/org-a/objects/deals/d-1/owner", nil).Code).To(Equal(http.StatusNoContent))
		})

		It("rejects a consulted user", func() {
			deal, _ := ownership.NewObjectRef("deal", "d-1")
			owners.rels[owners.key(deal, "user-x")] = []ownership.Relationship{ownership.Consulted}
			Expect(do(http.MethodPut, "/organizations/org-a/objects/deals/d-1/owner", nil).Code).To(Equal(http.StatusForbidden))
		})

		It("rejects unknown object types", func() {
			w := do(http.MethodPut, "/organizations/org-a/objects/widgets/w-1/owner", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(w)).To(Equal("INVALID_OBJECT_TYPE"))
		})
	})

	Describe("Me", func() {
		It("returns the caller's permissions", func() {
			perms.set("org-a", "user-x", "jobs.read")
			w := do(http.MethodGet, "/me/authorization", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp authz.AuthorizationContextResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.OrganizationID).To(Equal("org-a"))
			Expect(resp.Permissions).To(Equal([]string{"jobs.read"}))
			Expect(resp.PrimaryRole).To(BeNil())
		})
	})

	Describe("Authorize", func() {
		It("explains the caller's own decision", func() {
			perms.set("org-a", "user-x", "jobs.read")
			w := do(http.MethodPost, "/organizations/org-a/authorize", map[string]string{
				"permission": "jobs.update", "object_type": "job", "object_id": "j-1",
			})
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp authz.DecisionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Allowed).To(BeFalse())
			Expect(resp.Reason).To(Equal("INSUFFICIENT_PERMISSION"))
			Expect(resp.BasePermissions).To(Equal([]string{"jobs.read"}))
		})

		It("reports cross-tenant denials for the caller's own checks", func() {
			w := do(http.MethodPost, "/organizations/org-b/authorize", map[string]string{"permission": "jobs.read"})
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp authz.DecisionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Reason).To(Equal("CROSS_TENANT_ACCESS"))
		})

		It("requires authorization.explain to evaluate another profile", func() {
			w := do(http.MethodPost, "/organizations/org-a/authorize", map[string]string{"permission": "jobs.read", "profile_id": "user-y"})
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("evaluates another profile of the same organization", func() {
			perms.set("org-a", "user-x", permission.AuthorizationExplain)
			perms.set("org-a", "user-y", "jobs.read")
			w := do(http.MethodPost, "/organizations/org-a/authorize", map[string]string{"permission": "jobs.read", "profile_id": "user-y"})
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp authz.DecisionResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.ProfileID).To(Equal("user-y"))
			Expect(resp.Allowed).To(BeTrue())
		})

		It("hides profiles of other organizations", func() {
			perms.set("org-a", "user-x", permission.AuthorizationExplain)
			w := do(http.MethodPost, "/organizations/org-a/authorize", map[string]string{"permission": "jobs.read", "profile_id": "user-b"})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects malformed permission keys", func() {
			w := do(http.MethodPost, "/organizations/org-a/authorize", map[string]string{"permission": "Jobs"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(w)).To(Equal("INVALID_PERMISSION_KEY"))
		})
	})
})
