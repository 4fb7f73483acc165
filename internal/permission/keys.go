package permission

// Keys checked by the administrative API itself.
const (
	RolesRead            Key = "roles.read"
	RolesAdminister      Key = "roles.administer"
	PermissionsManage    Key = "permissions.administer"
	OwnershipAdminister  Key = "ownership.administer"
	AuditRead            Key = "audit.read"
	AuthorizationExplain Key = "authorization.explain"
)

// Definition is a catalog entry seeded at bootstrap.
type Definition struct {
	Key         Key
	Description string
}

// Catalog lists the platform permissions. Object keys follow
// <object plural>.<action>.
var Catalog = []Definition{
	{RolesRead, "View roles, permissions and role assignments"},
	{RolesAdminister, "Grant and revoke roles inside the organization"},
	{PermissionsManage, "Create roles and permissions and edit role permission sets"},
	{OwnershipAdminister, "Assign and remove object owners"},
	{AuditRead, "Read the organization audit log"},
	{AuthorizationExplain, "Evaluate authorization decisions for other users"},

	{"jobs.read", "View jobs"},
	{"jobs.create", "Create jobs"},
	{"jobs.update", "Edit jobs"},
	{"jobs.delete", "Delete jobs"},
	{"jobs.reassign", "Reassign job owners"},
	{"candidates.read", "View candidates"},
	{"candidates.create", "Create candidates"},
	{"candidates.update", "Edit candidates"},
	{"candidates.delete", "Delete candidates"},
	{"candidates.reassign", "Reassign candidate owners"},
	{"submissions.read", "View submissions"},
	{"submissions.update", "Edit submissions"},
	{"placements.read", "View placements"},
	{"placements.update", "Edit placements"},
	{"accounts.read", "View accounts"},
	{"accounts.update", "Edit accounts"},
	{"accounts.delete", "Delete accounts"},
	{"contacts.read", "View contacts"},
	{"contacts.update", "Edit contacts"},
	{"leads.read", "View leads"},
	{"leads.update", "Edit leads"},
	{"leads.convert", "Convert leads to deals"},
	{"deals.read", "View deals"},
	{"deals.update", "Edit deals"},
	{"deals.delete", "Delete deals"},
	{"deals.close", "Close deals"},
	{"campaigns.read", "View campaigns"},
	{"campaigns.update", "Edit campaigns"},
}
