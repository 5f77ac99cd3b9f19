// Package stash talks to a Stash catalog server: it verifies connectivity
// and fetches scene, performer and studio metadata over GraphQL.
package stash

// StashID cross-references an entity in another metadata system.
type StashID struct {
	Endpoint string `json:"endpoint"`
	ID       string `json:"stash_id"`
}

// Tag is a free-form label.
type Tag struct {
	Name string `json:"name"`
}

// Scene is a single catalog video.
type Scene struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Code           string           `json:"code,omitempty"`
	Details        string           `json:"details,omitempty"`
	Director       string           `json:"director,omitempty"`
	Date           Optional[Date]   `json:"date,omitzero"`
	Rating         Optional[int]    `json:"rating,omitzero"`
	ScreenshotPath string           `json:"screenshot_path,omitempty"`
	Studio         Optional[Studio] `json:"studio,omitzero"`
	Tags           []Tag            `json:"tags"`
	Performers     []Performer      `json:"performers"`
	StashIDs       []StashID        `json:"stash_ids"`
}

// Studio produced one or more scenes.
type Studio struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Details      string                 `json:"details,omitempty"`
	ImagePath    string                 `json:"image_path,omitempty"`
	ParentStudio Optional[ParentStudio] `json:"parent_studio,omitzero"`
	StashIDs     []StashID              `json:"stash_ids"`
}

// ParentStudio is the owner of a Studio. Only one level is populated.
type ParentStudio struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImagePath string `json:"image_path,omitempty"`
}

// Performer appears in scenes.
type Performer struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Disambiguation string         `json:"disambiguation,omitempty"`
	ImagePath      string         `json:"image_path,omitempty"`
	Birthdate      Optional[Date] `json:"birthdate,omitzero"`
	DeathDate      Optional[Date] `json:"death_date,omitzero"`
	Country        string         `json:"country,omitempty"`
	AliasList      []string       `json:"alias_list,omitempty"`
	Details        string         `json:"details,omitempty"`
	Tags           []Tag          `json:"tags"`
	StashIDs       []StashID      `json:"stash_ids"`
}

// TestConnectionResult is the outcome of a connectivity probe. SceneCount is
// set only when Success is true.
type TestConnectionResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	SceneCount *int   `json:"sceneCount,omitempty"`
}

// EntityKind names a catalog entity type.
type EntityKind string

const (
	EntityScene     EntityKind = "scene"
	EntityPerformer EntityKind = "performer"
	EntityStudio    EntityKind = "studio"
)

// EntityKinds lists every supported entity kind.
var EntityKinds = []EntityKind{EntityScene, EntityPerformer, EntityStudio}

// ParseEntityKind accepts a singular or plural kind name.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch s {
	case "scene", "scenes":
		return EntityScene, true
	case "performer", "performers":
		return EntityPerformer, true
	case "studio", "studios":
		return EntityStudio, true
	}
	return "", false
}
