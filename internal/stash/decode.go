package stash

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Wire shapes mirror the GraphQL field names. Required scalars use present
// so a missing key can be told apart from a null one.

type wireStashID struct {
	Endpoint string `json:"endpoint"`
	StashID  string `json:"stash_id"`
}

type wireTag struct {
	Name string `json:"name"`
}

type wirePaths struct {
	Screenshot string `json:"screenshot"`
}

type wireParentStudio struct {
	ID        present[string] `json:"id"`
	Name      present[string] `json:"name"`
	ImagePath string          `json:"image_path"`
}

type wireStudio struct {
	ID           present[string]            `json:"id"`
	Name         present[string]            `json:"name"`
	Details      string                     `json:"details"`
	ImagePath    string                     `json:"image_path"`
	ParentStudio Optional[wireParentStudio] `json:"parent_studio"`
	StashIDs     []wireStashID              `json:"stash_ids"`
}

type wirePerformer struct {
	ID             present[string]  `json:"id"`
	Name           present[string]  `json:"name"`
	Disambiguation string           `json:"disambiguation"`
	ImagePath      string           `json:"image_path"`
	Birthdate      Optional[string] `json:"birthdate"`
	DeathDate      Optional[string] `json:"death_date"`
	Country        string           `json:"country"`
	AliasList      []string         `json:"alias_list"`
	Details        string           `json:"details"`
	Tags           []wireTag        `json:"tags"`
	StashIDs       []wireStashID    `json:"stash_ids"`
}

type wireScene struct {
	ID         present[string]      `json:"id"`
	Title      present[string]      `json:"title"`
	Code       string               `json:"code"`
	Details    string               `json:"details"`
	Director   string               `json:"director"`
	Date       Optional[string]     `json:"date"`
	Rating100  Optional[int]        `json:"rating100"`
	Paths      wirePaths            `json:"paths"`
	Studio     Optional[wireStudio] `json:"studio"`
	Tags       []wireTag            `json:"tags"`
	Performers []wirePerformer      `json:"performers"`
	StashIDs   []wireStashID        `json:"stash_ids"`
}

func requireID(path string, p present[string]) (string, error) {
	if !p.Found || p.Null || p.Value == "" {
		return "", fmt.Errorf("%s.id is missing", path)
	}
	return p.Value, nil
}

// requireKey accepts null as "" but rejects a missing key.
func requireKey(path, key string, p present[string]) (string, error) {
	if !p.Found {
		return "", fmt.Errorf("%s.%s is missing", path, key)
	}
	return p.Value, nil
}

func convertTags(in []wireTag) []Tag {
	out := make([]Tag, 0, len(in))
	for _, t := range in {
		out = append(out, Tag(t))
	}
	return out
}

func convertStashIDs(in []wireStashID) []StashID {
	out := make([]StashID, 0, len(in))
	for _, s := range in {
		out = append(out, StashID{Endpoint: s.Endpoint, ID: s.StashID})
	}
	return out
}

func (w wireParentStudio) parentStudio(path string) (ParentStudio, error) {
	id, err := requireID(path, w.ID)
	if err != nil {
		return ParentStudio{}, err
	}
	name, err := requireKey(path, "name", w.Name)
	if err != nil {
		return ParentStudio{}, err
	}
	return ParentStudio{ID: id, Name: name, ImagePath: w.ImagePath}, nil
}

func (w wireStudio) studio(path string) (Studio, error) {
	id, err := requireID(path, w.ID)
	if err != nil {
		return Studio{}, err
	}
	name, err := requireKey(path, "name", w.Name)
	if err != nil {
		return Studio{}, err
	}

	s := Studio{
		ID:        id,
		Name:      name,
		Details:   w.Details,
		ImagePath: w.ImagePath,
		StashIDs:  convertStashIDs(w.StashIDs),
	}
	if wp, ok := w.ParentStudio.Get(); ok {
		parent, err := wp.parentStudio(path + ".parent_studio")
		if err != nil {
			return Studio{}, err
		}
		s.ParentStudio = Some(parent)
	}
	return s, nil
}

func (w wirePerformer) performer(path string) (Performer, error) {
	id, err := requireID(path, w.ID)
	if err != nil {
		return Performer{}, err
	}
	name, err := requireKey(path, "name", w.Name)
	if err != nil {
		return Performer{}, err
	}
	birth, err := optionalDate(w.Birthdate)
	if err != nil {
		return Performer{}, fmt.Errorf("%s.birthdate: %w", path, err)
	}
	death, err := optionalDate(w.DeathDate)
	if err != nil {
		return Performer{}, fmt.Errorf("%s.death_date: %w", path, err)
	}

	return Performer{
		ID:             id,
		Name:           name,
		Disambiguation: w.Disambiguation,
		ImagePath:      w.ImagePath,
		Birthdate:      birth,
		DeathDate:      death,
		Country:        w.Country,
		AliasList:      w.AliasList,
		Details:        w.Details,
		Tags:           convertTags(w.Tags),
		StashIDs:       convertStashIDs(w.StashIDs),
	}, nil
}

func (w wireScene) scene(path string) (Scene, error) {
	id, err := requireID(path, w.ID)
	if err != nil {
		return Scene{}, err
	}
	title, err := requireKey(path, "title", w.Title)
	if err != nil {
		return Scene{}, err
	}
	date, err := optionalDate(w.Date)
	if err != nil {
		return Scene{}, fmt.Errorf("%s.date: %w", path, err)
	}
	if r, ok := w.Rating100.Get(); ok && (r < 0 || r > 100) {
		return Scene{}, fmt.Errorf("%s.rating100 %d is outside 0..100", path, r)
	}

	s := Scene{
		ID:             id,
		Title:          title,
		Code:           w.Code,
		Details:        w.Details,
		Director:       w.Director,
		Date:           date,
		Rating:         w.Rating100,
		ScreenshotPath: w.Paths.Screenshot,
		Tags:           convertTags(w.Tags),
		Performers:     make([]Performer, 0, len(w.Performers)),
		StashIDs:       convertStashIDs(w.StashIDs),
	}
	if ws, ok := w.Studio.Get(); ok {
		studio, err := ws.studio(path + ".studio")
		if err != nil {
			return Scene{}, err
		}
		s.Studio = Some(studio)
	}
	for i, wp := range w.Performers {
		p, err := wp.performer(fmt.Sprintf("%s.performers[%d]", path, i))
		if err != nil {
			return Scene{}, err
		}
		s.Performers = append(s.Performers, p)
	}
	return s, nil
}

var errNullResult = errors.New("result is null")

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// lookupResult returns data.<op>, or errNullResult when it is explicitly null.
func lookupResult(tmpl queryTemplate, data []byte) (json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("data is not an object: %w", err)
	}
	raw, ok := root[tmpl.op]
	if !ok {
		return nil, fmt.Errorf("data.%s is missing", tmpl.op)
	}
	if isNull(raw) {
		return nil, errNullResult
	}
	return raw, nil
}

// lookupCollection returns data.<op>.<collection>. A null collection is
// returned as an empty JSON array.
func lookupCollection(tmpl queryTemplate, data []byte) (json.RawMessage, error) {
	raw, err := lookupResult(tmpl, data)
	if errors.Is(err, errNullResult) {
		return nil, fmt.Errorf("data.%s is null", tmpl.op)
	}
	if err != nil {
		return nil, err
	}

	var page map[string]json.RawMessage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("data.%s is not an object: %w", tmpl.op, err)
	}
	items, ok := page[tmpl.collection]
	if !ok {
		return nil, fmt.Errorf("data.%s.%s is missing", tmpl.op, tmpl.collection)
	}
	if isNull(items) {
		return json.RawMessage("[]"), nil
	}
	return items, nil
}

// decodeOne unmarshals raw into a wire value and converts it.
func decodeOne[W, E any](raw json.RawMessage, path string, convert func(W, string) (E, error)) (E, error) {
	var (
		w    W
		zero E
	)
	if err := json.Unmarshal(raw, &w); err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return convert(w, path)
}

// decodeList unmarshals raw as an array of wire values and converts each.
func decodeList[W, E any](raw json.RawMessage, path string, convert func(W, string) (E, error)) ([]E, error) {
	var ws []W
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make([]E, 0, len(ws))
	for i, w := range ws {
		e, err := convert(w, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DecodeScene decodes a single scene object as returned by findScene.
func DecodeScene(raw []byte) (Scene, error) {
	s, err := decodeOne(raw, "scene", wireScene.scene)
	if err != nil {
		return Scene{}, decodeError("DecodeScene", "%w", err)
	}
	return s, nil
}
