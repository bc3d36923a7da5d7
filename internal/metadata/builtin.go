package metadata

// BuiltinModules returns the module catalog for the listing application.
// This is the schema-introspection source the permission admin consumes:
// names and fields here drive both the CRUD routes and the field-permission
// editor. Secret and auto-managed fields never leave the server.
func BuiltinModules() []*Module {
	return []*Module{
		{
			Name:       "properties",
			Table:      "properties",
			PrimaryKey: "id",
			OwnerField: "created_by",
			SoftDelete: true,
			Slug:       &SlugConfig{Field: "slug", Source: "title"},
			Fields: []Field{
				{Name: "id", Type: "uuid"},
				{Name: "title", Type: "string", Required: true},
				{Name: "slug", Type: "string"},
				{Name: "description", Type: "text"},
				{Name: "price", Type: "decimal", Required: true},
				{Name: "bedrooms", Type: "int"},
				{Name: "bathrooms", Type: "int"},
				{Name: "area_sqft", Type: "int"},
				{Name: "address", Type: "string"},
				{Name: "city_id", Type: "uuid"},
				{Name: "category_id", Type: "uuid"},
				{Name: "agent_id", Type: "uuid"},
				{Name: "status", Type: "string"},
				{Name: "featured", Type: "boolean"},
				{Name: "created_by", Type: "uuid", Auto: "create"},
				{Name: "created_at", Type: "timestamp", Auto: "create"},
				{Name: "updated_at", Type: "timestamp", Auto: "update"},
			},
		},
		{
			Name:       "categories",
			Table:      "categories",
			PrimaryKey: "id",
			OwnerField: "created_by",
			Slug:       &SlugConfig{Field: "slug", Source: "name"},
			Fields: []Field{
				{Name: "id", Type: "uuid"},
				{Name: "name", Type: "string", Required: true},
				{Name: "slug", Type: "string"},
				{Name: "description", Type: "text"},
				{Name: "created_by", Type: "uuid", Auto: "create"},
				{Name: "created_at", Type: "timestamp", Auto: "create"},
				{Name: "updated_at", Type: "timestamp", Auto: "update"},
			},
		},
		{
			Name:       "cities",
			Table:      "cities",
			PrimaryKey: "id",
			OwnerField: "created_by",
			Slug:       &SlugConfig{Field: "slug", Source: "name"},
			Fields: []Field{
				{Name: "id", Type: "uuid"},
				{Name: "name", Type: "string", Required: true},
				{Name: "slug", Type: "string"},
				{Name: "state", Type: "string"},
				{Name: "created_by", Type: "uuid", Auto: "create"},
				{Name: "created_at", Type: "timestamp", Auto: "create"},
				{Name: "updated_at", Type: "timestamp", Auto: "update"},
			},
		},
		{
			Name:       "agents",
			Table:      "agents",
			PrimaryKey: "id",
			OwnerField: "created_by",
			Fields: []Field{
				{Name: "id", Type: "uuid"},
				{Name: "name", Type: "string", Required: true},
				{Name: "email", Type: "string", Required: true},
				{Name: "phone", Type: "string"},
				{Name: "photo_url", Type: "string"},
				{Name: "bio", Type: "text"},
				{Name: "active", Type: "boolean"},
				{Name: "created_by", Type: "uuid", Auto: "create"},
				{Name: "created_at", Type: "timestamp", Auto: "create"},
				{Name: "updated_at", Type: "timestamp", Auto: "update"},
			},
		},
		{
			Name:       "enquiries",
			Table:      "enquiries",
			PrimaryKey: "id",
			OwnerField: "created_by",
			Fields: []Field{
				{Name: "id", Type: "uuid"},
				{Name: "property_id", Type: "uuid", Required: true},
				{Name: "name", Type: "string", Required: true},
				{Name: "email", Type: "string", Required: true},
				{Name: "phone", Type: "string"},
				{Name: "message", Type: "text"},
				{Name: "status", Type: "string"},
				{Name: "assigned_to", Type: "uuid"},
				{Name: "created_by", Type: "uuid", Auto: "create"},
				{Name: "created_at", Type: "timestamp", Auto: "create"},
				{Name: "updated_at", Type: "timestamp", Auto: "update"},
			},
		},
		{
			// Managed through the admin API only; generic CRUD skips it.
			Name:       "users",
			Table:      "_users",
			PrimaryKey: "id",
			Internal:   true,
			Fields: []Field{
				{Name: "id", Type: "uuid"},
				{Name: "email", Type: "string", Required: true},
				{Name: "active", Type: "boolean"},
				{Name: "password_hash", Type: "string", Secret: true},
				{Name: "permissions", Type: "json", Secret: true},
				{Name: "field_permissions", Type: "json", Secret: true},
				{Name: "created_at", Type: "timestamp", Auto: "create"},
				{Name: "updated_at", Type: "timestamp", Auto: "update"},
			},
		},
	}
}
