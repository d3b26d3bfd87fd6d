package rbac

// Identifiers of the seeded system roles.
const (
	RoleSuperAdmin = "super-admin"
	RoleNotaire    = "notaire"
	RoleClerc      = "clerc"
	RoleSecretaire = "secretaire"
	RoleComptable  = "comptable"
	RoleStagiaire  = "stagiaire"
	RoleViewer     = "viewer"
)

func allPermissionsGrant(m Module) Grant {
	return Grant{Module: m, Permissions: append([]Permission(nil), AllPermissions...)}
}

// systemRoles returns the canonical catalog of seeded roles. The grant
// table is authorization policy: changing a row here changes what an office
// profile may do. Lower level means more privileged; the evaluator never
// reads the level, it orders display only.
func systemRoles() []Role {
	superAdminGrants := make([]Grant, 0, len(AllModules))
	for _, m := range AllModules {
		superAdminGrants = append(superAdminGrants, allPermissionsGrant(m))
	}

	return []Role{
		{
			ID:          RoleSuperAdmin,
			Name:        "Super Admin",
			Description: "Accès complet à tous les modules de l'étude",
			Level:       1,
			IsSystem:    true,
			Color:       "#b91c1c",
			Icon:        "shield",
			Grants:      superAdminGrants,
		},
		{
			ID:          RoleNotaire,
			Name:        "Notaire",
			Description: "Notaire titulaire : signe et approuve les actes",
			Level:       2,
			IsSystem:    true,
			Color:       "#1d4ed8",
			Icon:        "stamp",
			Grants: []Grant{
				{Module: ModuleDashboard, Permissions: []Permission{PermRead}},
				{Module: ModuleClients, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermDelete, PermExport}},
				{Module: ModuleDossiers, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermDelete, PermExport, PermApprove}},
				{Module: ModuleActes, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermDelete, PermExport, PermApprove, PermSign}},
				{Module: ModuleComptabilite, Permissions: []Permission{PermRead, PermExport, PermApprove}},
				{Module: ModuleFacturation, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermApprove}},
				{Module: ModuleCRM, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{Module: ModuleArchives, Permissions: []Permission{PermRead, PermExport}},
				{Module: ModuleAgenda, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermDelete}},
				{Module: ModuleDocuments, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermDelete, PermExport}},
				{Module: ModuleRapports, Permissions: []Permission{PermRead, PermExport}},
			},
		},
		{
			ID:          RoleClerc,
			Name:        "Clerc",
			Description: "Clerc rédacteur : prépare les dossiers et les actes",
			Level:       3,
			IsSystem:    true,
			Color:       "#0f766e",
			Icon:        "pen",
			Grants: []Grant{
				{Module: ModuleDashboard, Permissions: []Permission{PermRead}},
				{Module: ModuleClients, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{Module: ModuleDossiers, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{
					Module:      ModuleActes,
					Permissions: []Permission{PermRead, PermCreate, PermUpdate},
					Conditions:  &GrantConditions{RequireApproval: true},
				},
				{Module: ModuleDocuments, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{Module: ModuleAgenda, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{Module: ModuleArchives, Permissions: []Permission{PermRead}},
				{Module: ModuleCRM, Permissions: []Permission{PermRead}},
			},
		},
		{
			ID:          RoleComptable,
			Name:        "Comptable",
			Description: "Comptable taxateur : comptabilité et facturation",
			Level:       4,
			IsSystem:    true,
			Color:       "#7c3aed",
			Icon:        "calculator",
			Grants: []Grant{
				{Module: ModuleDashboard, Permissions: []Permission{PermRead}},
				{Module: ModuleClients, Permissions: []Permission{PermRead}},
				{Module: ModuleDossiers, Permissions: []Permission{PermRead}},
				{Module: ModuleComptabilite, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermExport, PermImport}},
				{
					Module:      ModuleFacturation,
					Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermExport},
					Conditions:  &GrantConditions{MaxAmount: 10000},
				},
				{Module: ModuleRapports, Permissions: []Permission{PermRead, PermExport}},
			},
		},
		{
			ID:          RoleSecretaire,
			Name:        "Secrétaire",
			Description: "Secrétariat : accueil, agenda et courrier",
			Level:       5,
			IsSystem:    true,
			Color:       "#be185d",
			Icon:        "phone",
			Grants: []Grant{
				{Module: ModuleDashboard, Permissions: []Permission{PermRead}},
				{Module: ModuleClients, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{Module: ModuleDossiers, Permissions: []Permission{PermRead}},
				{Module: ModuleAgenda, Permissions: []Permission{PermRead, PermCreate, PermUpdate, PermDelete}},
				{Module: ModuleDocuments, Permissions: []Permission{PermRead, PermCreate}},
				{Module: ModuleCRM, Permissions: []Permission{PermRead, PermCreate, PermUpdate}},
				{Module: ModuleFacturation, Permissions: []Permission{PermRead}},
			},
		},
		{
			ID:          RoleStagiaire,
			Name:        "Stagiaire",
			Description: "Notaire stagiaire : lecture limitée à son équipe",
			Level:       6,
			IsSystem:    true,
			Color:       "#ca8a04",
			Icon:        "school",
			Grants: []Grant{
				{Module: ModuleDashboard, Permissions: []Permission{PermRead}},
				{
					Module:      ModuleClients,
					Permissions: []Permission{PermRead},
					Conditions:  &GrantConditions{TeamOnly: true},
				},
				{
					Module:      ModuleDossiers,
					Permissions: []Permission{PermRead},
					Conditions:  &GrantConditions{TeamOnly: true},
				},
				{Module: ModuleActes, Permissions: []Permission{PermRead}},
				{
					Module:      ModuleDocuments,
					Permissions: []Permission{PermRead, PermCreate},
					Conditions:  &GrantConditions{OwnOnly: true},
				},
				{
					Module:      ModuleAgenda,
					Permissions: []Permission{PermRead, PermCreate},
					Conditions:  &GrantConditions{OwnOnly: true},
				},
			},
		},
		{
			ID:          RoleViewer,
			Name:        "Viewer",
			Description: "Consultation seule",
			Level:       7,
			IsSystem:    true,
			Color:       "#475569",
			Icon:        "eye",
			Grants: []Grant{
				{Module: ModuleDashboard, Permissions: []Permission{PermRead}},
				{Module: ModuleClients, Permissions: []Permission{PermRead}},
				{Module: ModuleDossiers, Permissions: []Permission{PermRead}},
				{Module: ModuleActes, Permissions: []Permission{PermRead}},
				{Module: ModuleArchives, Permissions: []Permission{PermRead}},
				{Module: ModuleRapports, Permissions: []Permission{PermRead}},
			},
		},
	}
}
