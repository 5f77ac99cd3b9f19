package stash

import "strings"

// Field selections. Every template for an entity requests the same set.
const (
	stashIDFields = `stash_ids { endpoint stash_id }`

	performerSummaryFields = `id name disambiguation image_path`

	studioFields = `id name details image_path parent_studio { id name image_path } ` + stashIDFields

	sceneFields = `id title code details director date rating100 paths { screenshot } ` +
		`studio { ` + studioFields + ` } tags { name } performers { ` + performerSummaryFields + ` } ` + stashIDFields

	performerFields = `id name disambiguation image_path birthdate death_date country alias_list details ` +
		`tags { name } ` + stashIDFields
)

// probeQuery is the connectivity check sent by Verifier.
const probeQuery = `{ stats { scene_count } }`

type fetchMode int

const (
	modeByID fetchMode = iota
	modeSearch
)

type queryKey struct {
	kind EntityKind
	mode fetchMode
}

// queryTemplate is a fixed GraphQL document plus the response path holding
// its result: data.<op> for lookups and data.<op>.<collection> for searches.
type queryTemplate struct {
	op         string
	collection string
	document   string
}

var templates = map[queryKey]queryTemplate{
	{EntityScene, modeByID}: {
		op:       "findScene",
		document: `query FindScene($id: ID!) { findScene(id: $id) { ` + sceneFields + ` } }`,
	},
	{EntityScene, modeSearch}: {
		op:         "findScenes",
		collection: "scenes",
		document: `query FindScenes($filter: FindFilterType, $ids: [ID!], $scene_filter: SceneFilterType) ` +
			`{ findScenes(filter: $filter, ids: $ids, scene_filter: $scene_filter) { scenes { ` + sceneFields + ` } } }`,
	},
	{EntityPerformer, modeByID}: {
		op:       "findPerformer",
		document: `query FindPerformer($id: ID!) { findPerformer(id: $id) { ` + performerFields + ` } }`,
	},
	{EntityPerformer, modeSearch}: {
		op:         "findPerformers",
		collection: "performers",
		document: `query FindPerformers($filter: FindFilterType, $ids: [ID!], $performer_filter: PerformerFilterType) ` +
			`{ findPerformers(filter: $filter, ids: $ids, performer_filter: $performer_filter) { performers { ` + performerFields + ` } } }`,
	},
	{EntityStudio, modeByID}: {
		op:       "findStudio",
		document: `query FindStudio($id: ID!) { findStudio(id: $id) { ` + studioFields + ` } }`,
	},
	{EntityStudio, modeSearch}: {
		op:         "findStudios",
		collection: "studios",
		document: `query FindStudios($filter: FindFilterType, $ids: [ID!], $studio_filter: StudioFilterType) ` +
			`{ findStudios(filter: $filter, ids: $ids, studio_filter: $studio_filter) { studios { ` + studioFields + ` } } }`,
	},
}

// Filter narrows a search. The zero Filter matches everything, subject to
// the server's default page size.
type Filter struct {
	// Query is free text matched by the server.
	Query string
	// IDs restricts results to these entity ids.
	IDs []string
	// Sort is a server-side sort key such as "title" or "date".
	Sort string
	// Direction is "ASC" or "DESC".
	Direction string
	// PerPage caps the number of results; zero leaves the server default.
	PerPage int
	// Criteria is sent unchanged as the entity filter (SceneFilterType and
	// friends). It is bound as a variable and never enters the document.
	Criteria map[string]any
}

// variables binds f to the search template variables for kind.
func (f Filter) variables(kind EntityKind) map[string]any {
	vars := map[string]any{}

	find := map[string]any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		find["q"] = q
	}
	if f.Sort != "" {
		find["sort"] = f.Sort
	}
	if d := strings.ToUpper(strings.TrimSpace(f.Direction)); d == "ASC" || d == "DESC" {
		find["direction"] = d
	}
	if f.PerPage > 0 {
		find["per_page"] = f.PerPage
	}
	if len(find) > 0 {
		vars["filter"] = find
	}

	if len(f.IDs) > 0 {
		vars["ids"] = f.IDs
	}
	if len(f.Criteria) > 0 {
		vars[string(kind)+"_filter"] = f.Criteria
	}
	return vars
}
