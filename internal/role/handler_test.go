package role_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Role Handler Integration", func() {
	var (
		f         *fixture
		router    chi.Router
		recruiter *role.Role
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeError := func(w *httptest.ResponseRecorder) errorEnvelope {
		var env errorEnvelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env
	}

	BeforeEach(func() {
		f = newFixture()
		f.permissions("candidates.read", "candidates.update")
		recruiter = f.role("recruiter", "candidates.read", "candidates.update")

		handler := role.NewHandler(transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil))), f.service, f.catalog)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				caller := identity.Caller{AuthID: "auth-y", ProfileID: "user-y", OrganizationID: "org-a"}
				next.ServeHTTP(w, r.WithContext(identity.ContextWithCaller(r.Context(), caller)))
			})
		})
		router.Get("/roles", handler.ListRoles)
		router.Post("/roles", handler.CreateRole)
		router.Get("/permissions/matrix", handler.PermissionMatrix)
		router.Get("/roles/compare", handler.CompareRoles)
		router.Get("/organizations/{orgID}/users/{profileID}/roles", handler.ListUserRoles)
		router.Post("/organizations/{orgID}/users/{profileID}/roles", handler.GrantRole)
		router.Delete("/organizations/{orgID}/role-assignments/{assignmentID}", handler.RevokeAssignment)
	})

	It("grants, lists and revokes a role", func() {
		w := do(http.MethodPost, "/organizations/org-a/users/user-x/roles", map[string]interface{}{
			"role_id": recruiter.ID, "is_primary": true,
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var granted role.AssignmentResponse
		Expect(json.NewDecoder(w.Body).Decode(&granted)).To(Succeed())
		Expect(granted.GrantedBy).To(Equal("user-y"))
		Expect(granted.IsPrimary).To(BeTrue())

		w = do(http.MethodGet, "/organizations/org-a/users/user-x/roles", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list role.AssignmentsResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Assignments).To(HaveLen(1))
		Expect(list.Assignments[0].RoleName).To(Equal("recruiter"))

		w = do(http.MethodDelete, "/organizations/org-a/role-assignments/"+granted.ID, nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/organizations/org-a/users/user-x/roles", nil)
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Assignments).To(BeEmpty())
	})

	It("answers another organization's path exactly like a missing resource", func() {
		crossTenant := do(http.MethodGet, "/organizations/org-b/users/user-b/roles", nil)
		missing := do(http.MethodDelete, "/organizations/org-a/role-assignments/does-not-exist", nil)

		Expect(crossTenant.Code).To(Equal(http.StatusNotFound))
		Expect(missing.Code).To(Equal(http.StatusNotFound))
		Expect(crossTenant.Body.String()).To(Equal(missing.Body.String()))
	})

	It("reports a past expiry as INVALID_EXPIRY", func() {
		w := do(http.MethodPost, "/organizations/org-a/users/user-x/roles", map[string]interface{}{
			"role_id": recruiter.ID, "expires_at": epoch.Add(-1).Format("2006-01-02T15:04:05.999999999Z07:00"),
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(w).Error.Code).To(Equal("INVALID_EXPIRY"))
	})

	It("rejects unknown body fields", func() {
		w := do(http.MethodPost, "/organizations/org-a/users/user-x/roles", map[string]interface{}{"role": "recruiter"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("reports duplicate role names as a conflict", func() {
		w := do(http.MethodPost, "/roles", map[string]interface{}{"name": "recruiter"})
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(decodeError(w).Error.Code).To(Equal("DUPLICATE_ROLE"))
	})

	It("lists roles with their permissions", func() {
		w := do(http.MethodGet, "/roles", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp role.RolesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Roles).To(HaveLen(1))
		Expect(resp.Roles[0].Permissions).To(Equal([]string{"candidates.read", "candidates.update"}))
	})

	It("compares two roles permission by permission", func() {
		reader := f.role("reader", "candidates.read")
		w := do(http.MethodGet, "/roles/compare?role_a="+recruiter.ID+"&role_b="+reader.ID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp role.RoleComparisonResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.RoleA.Name).To(Equal("recruiter"))
		Expect(resp.RoleB.Name).To(Equal("reader"))
		Expect(resp.Differences).To(Equal(1))
		Expect(resp.Permissions).To(ContainElement(role.PermissionDiffResponse{
			Permission: "candidates.update", RoleA: true, RoleB: false, Different: true,
		}))
		Expect(resp.Permissions).To(ContainElement(role.PermissionDiffResponse{
			Permission: "candidates.read", RoleA: true, RoleB: true, Different: false,
		}))
	})

	It("requires both roles for a comparison", func() {
		w := do(http.MethodGet, "/roles/compare?role_a="+recruiter.ID, nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodGet, "/roles/compare?role_a="+recruiter.ID+"&role_b=missing", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(decodeError(w).Error.Code).To(Equal("ROLE_NOT_FOUND"))
	})

	It("requires object_type for the matrix", func() {
		w := do(http.MethodGet, "/permissions/matrix", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodGet, "/permissions/matrix?object_type=candidates", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var m role.MatrixResponse
		Expect(json.NewDecoder(w.Body).Decode(&m)).To(Succeed())
		Expect(m.Roles[0].Actions).To(HaveKeyWithValue("update", true))
	})
})
