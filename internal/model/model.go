// Package model defines the persistent and derived types shared across the
// docforge backend: projects, source files, preferences, documentable items,
// generation plans, and documentation revisions.
package model

import "time"

// ProjectStatus describes the documentation lifecycle of a project. It is
// derived from the project's files, never set directly by a client.
type ProjectStatus string

const (
	StatusEmpty      ProjectStatus = "empty"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
)

// Project is an owned collection of uploaded source files.
type Project struct {
	ID          string        `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description" json:"description"`
	UserID      string        `bson:"user_id" json:"user_id"`
	Tags        []string      `bson:"tags" json:"tags"`
	Status      ProjectStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// Symbol is a named source snippet: a function or a method.
type Symbol struct {
	Name string `bson:"name" json:"name"`
	Code string `bson:"code" json:"code"`
}

// ClassSymbol is a class with its method symbols.
type ClassSymbol struct {
	Name    string   `bson:"name" json:"name"`
	Code    string   `bson:"code" json:"code"`
	Methods []Symbol `bson:"methods" json:"methods"`
}

// SourceFile is one parsed Python file belonging to a project. Functions and
// Classes hold the raw parse result; ProcessedFunctions and ProcessedClasses
// hold the outcome of the last preferences-apply pass.
type SourceFile struct {
	ID                 string        `bson:"_id,omitempty" json:"id"`
	ProjectID          string        `bson:"project_id" json:"project_id"`
	Filename           string        `bson:"filename" json:"filename"`
	Functions          []Symbol      `bson:"functions" json:"functions"`
	Classes            []ClassSymbol `bson:"classes" json:"classes"`
	ProcessedFunctions []Symbol      `bson:"processed_functions" json:"processed_functions"`
	ProcessedClasses   []ClassSymbol `bson:"processed_classes" json:"processed_classes"`
}

// SymbolCount returns the number of documentable symbols in the raw parse:
// functions + classes + methods.
func (f *SourceFile) SymbolCount() int {
	n := len(f.Functions) + len(f.Classes)
	for _, c := range f.Classes {
		n += len(c.Methods)
	}
	return n
}

// ProcessedCount returns the number of symbols in the processed inventories.
func (f *SourceFile) ProcessedCount() int {
	n := len(f.ProcessedFunctions) + len(f.ProcessedClasses)
	for _, c := range f.ProcessedClasses {
		n += len(c.Methods)
	}
	return n
}

// DirectoryExclusion drops whole files by exact path or directory prefix.
type DirectoryExclusion struct {
	ExcludeFiles []string `bson:"exclude_files" json:"exclude_files"`
	ExcludeDirs  []string `bson:"exclude_dirs" json:"exclude_dirs"`
}

// PerFileExclusion drops named symbols within one specific file.
type PerFileExclusion struct {
	Filename       string   `bson:"filename" json:"filename"`
	ExcludeFuncs   []string `bson:"exclude_functions" json:"exclude_functions"`
	ExcludeClasses []string `bson:"exclude_classes" json:"exclude_classes"`
	ExcludeMethods []string `bson:"exclude_methods" json:"exclude_methods"`
}

// Preferences holds one project's documentation settings. Exactly one
// document exists per project; it is created lazily with defaults on read.
type Preferences struct {
	ID                 string             `bson:"_id,omitempty" json:"id,omitempty"`
	ProjectID          string             `bson:"project_id" json:"project_id"`
	Format             string             `bson:"format" json:"format"`
	DirectoryExclusion DirectoryExclusion `bson:"directory_exclusion" json:"directory_exclusion"`
	PerFileExclusion   []PerFileExclusion `bson:"per_file_exclusion" json:"per_file_exclusion"`
}

// DefaultPreferences returns the preferences stored when a project has none.
func DefaultPreferences(projectID string) *Preferences {
	return &Preferences{
		ProjectID: projectID,
		Format:    "HTML",
		DirectoryExclusion: DirectoryExclusion{
			ExcludeFiles: []string{},
			ExcludeDirs:  []string{},
		},
		PerFileExclusion: []PerFileExclusion{},
	}
}

// ItemType discriminates documentable items. Keeping it a dedicated type lets
// the exclusion rules switch over it exhaustively.
type ItemType string

const (
	ItemFunction ItemType = "function"
	ItemClass    ItemType = "class"
	ItemMethod   ItemType = "method"
)

// Item is one documentable unit extracted from a source file. Items are
// derived on demand and never persisted on their own.
type Item struct {
	Name        string   `json:"name"`
	Type        ItemType `json:"type"`
	File        string   `json:"file"`
	Code        string   `json:"code"`
	ParentClass string   `json:"parent_class,omitempty"`
}

// DocumentationPlan is the deterministic result of applying preferences to a
// project's files. It is recomputed on every request and never cached.
type DocumentationPlan struct {
	ProjectID     string   `json:"project_id"`
	Format        string   `json:"format"`
	TotalItems    int      `json:"total_items"`
	Items         []Item   `json:"items"`
	ExcludedFiles []string `json:"excluded_files"`
	IncludedFiles []string `json:"included_files"`
}

// DocstringResult pairs one item with its generated docstring.
type DocstringResult struct {
	Name               string   `bson:"name" json:"name"`
	Type               ItemType `bson:"type" json:"type"`
	File               string   `bson:"file" json:"file"`
	ParentClass        string   `bson:"parent_class,omitempty" json:"parent_class,omitempty"`
	OriginalCode       string   `bson:"original_code" json:"original_code"`
	GeneratedDocstring string   `bson:"generated_docstring" json:"generated_docstring"`
}

// DocumentationRevision is the immutable record of one completed generation
// run. Only Title, Filename, and Description may be patched afterwards.
type DocumentationRevision struct {
	ID             string            `bson:"_id,omitempty" json:"id"`
	RevisionID     string            `bson:"revision_id" json:"revision_id"`
	ProjectID      string            `bson:"project_id" json:"project_id"`
	Format         string            `bson:"format" json:"format"`
	Results        []DocstringResult `bson:"results" json:"results"`
	IncludedFiles  []string          `bson:"included_files" json:"included_files"`
	ExcludedFiles  []string          `bson:"excluded_files" json:"excluded_files"`
	Preferences    *Preferences      `bson:"preferences_snapshot,omitempty" json:"preferences_snapshot,omitempty"`
	CreatedBy      string            `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
	GenerationSecs float64           `bson:"generation_time_seconds" json:"generation_time_seconds"`
	Title          string            `bson:"title,omitempty" json:"title,omitempty"`
	Filename       string            `bson:"filename,omitempty" json:"filename,omitempty"`
	Description    string            `bson:"description,omitempty" json:"description,omitempty"`
}

// User is a registered account. GithubTokenEnc holds the user's GitHub
// access token encrypted at rest; it is never serialized to JSON.
type User struct {
	ID             string `bson:"_id,omitempty" json:"id"`
	Username       string `bson:"username" json:"username"`
	Email          string `bson:"email" json:"email"`
	HashedPassword string `bson:"hashed_password" json:"-"`
	IsAdmin        bool   `bson:"is_admin" json:"is_admin"`
	AuthProvider   string `bson:"auth_provider,omitempty" json:"auth_provider,omitempty"`
	ProviderID     string `bson:"provider_id,omitempty" json:"provider_id,omitempty"`
	GithubTokenEnc string `bson:"github_token_enc,omitempty" json:"-"`
}

// DeriveProjectStatus computes the project status from its files: empty when
// no file contributes any symbol, completed when every file with symbols has
// a non-empty processed inventory, in_progress otherwise.
func DeriveProjectStatus(files []SourceFile) ProjectStatus {
	anySymbols := false
	allProcessed := true
	for i := range files {
		raw := files[i].SymbolCount()
		if raw == 0 {
			continue
		}
		anySymbols = true
		if files[i].ProcessedCount() == 0 {
			allProcessed = false
		}
	}
	switch {
	case !anySymbols:
		return StatusEmpty
	case allProcessed:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}
