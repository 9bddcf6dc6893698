package simpleadmin

import (
	"slices"

	"github.com/google/uuid"
)

// DashboardState is an immutable snapshot of the admin dashboard.
//
// Reducers take a snapshot by value and return a new one; slices held by a
// snapshot are never written after it is returned.
type DashboardState struct {
	View     View              `json:"view"`
	Loading  bool              `json:"loading"`
	Posts    []Post            `json:"posts"`
	Media    []MediaDescriptor `json:"media"`
	KeyIndex [][]string        `json:"-"`
	Usage    UsagePartition    `json:"usage"`

	mapping KeyMapping
}

// NewDashboardState returns the initial snapshot: list view, loading, empty.
func NewDashboardState(mapping KeyMapping) DashboardState {
	return DashboardState{
		View:    ViewList,
		Loading: true,
		Posts:   []Post{},
		Media:   []MediaDescriptor{},
		Usage:   UsagePartition{InUse: []MediaDescriptor{}, NotInUse: []MediaDescriptor{}},
		mapping: mapping,
	}
}

// Mapping returns the key mapping the snapshot reconciles with.
func (s DashboardState) Mapping() KeyMapping {
	return s.mapping
}

func (s DashboardState) reconcile() DashboardState {
	s.Usage = Reconcile(s.Media, s.KeyIndex, s.mapping)
	return s
}

// ViewChanged switches the visible tab. Unknown views leave the state as is.
func (s DashboardState) ViewChanged(v View) DashboardState {
	if !v.IsValid() {
		return s
	}
	s.View = v
	return s
}

// PostsLoaded replaces the post list and clears the loading flag.
func (s DashboardState) PostsLoaded(posts []Post) DashboardState {
	s.Posts = slices.Clone(posts)
	if s.Posts == nil {
		s.Posts = []Post{}
	}
	s.Loading = false
	return s
}

// PostAdded prepends a newly created post.
func (s DashboardState) PostAdded(post Post) DashboardState {
	next := make([]Post, 0, len(s.Posts)+1)
	next = append(next, post)
	s.Posts = append(next, s.Posts...)
	return s
}

// PostRemoved drops the post with the given id.
func (s DashboardState) PostRemoved(id uuid.UUID) DashboardState {
	next := make([]Post, 0, len(s.Posts))
	for _, p := range s.Posts {
		if p.ID != id {
			next = append(next, p)
		}
	}
	s.Posts = next
	return s
}

// PostPublished sets the published flag of the post with the given id.
func (s DashboardState) PostPublished(id uuid.UUID, published bool) DashboardState {
	next := make([]Post, len(s.Posts))
	for i, p := range s.Posts {
		if p.ID == id {
			p.Published = published
		}
		next[i] = p
	}
	s.Posts = next
	return s
}

// MediaLoaded replaces the media set and reconciles usage.
func (s DashboardState) MediaLoaded(media []MediaDescriptor) DashboardState {
	s.Media = slices.Clone(media)
	if s.Media == nil {
		s.Media = []MediaDescriptor{}
	}
	return s.reconcile()
}

// MediaAdded appends descriptors and reconciles usage.
func (s DashboardState) MediaAdded(media ...MediaDescriptor) DashboardState {
	next := make([]MediaDescriptor, 0, len(s.Media)+len(media))
	next = append(next, s.Media...)
	s.Media = append(next, media...)
	return s.reconcile()
}

// MediaRemoved drops every descriptor equal to d and reconciles usage.
func (s DashboardState) MediaRemoved(d MediaDescriptor) DashboardState {
	next := make([]MediaDescriptor, 0, len(s.Media))
	for _, m := range s.Media {
		if m != d {
			next = append(next, m)
		}
	}
	s.Media = next
	return s.reconcile()
}

// MediaKeyRemoved drops every descriptor stored under key and reconciles usage.
func (s DashboardState) MediaKeyRemoved(key string) DashboardState {
	next := make([]MediaDescriptor, 0, len(s.Media))
	for _, m := range s.Media {
		if m.Key != key {
			next = append(next, m)
		}
	}
	s.Media = next
	return s.reconcile()
}

// KeyIndexLoaded replaces the referenced key lists and reconciles usage.
func (s DashboardState) KeyIndexLoaded(keyIndex [][]string) DashboardState {
	next := make([][]string, len(keyIndex))
	for i, keys := range keyIndex {
		next[i] = slices.Clone(keys)
	}
	s.KeyIndex = next
	return s.reconcile()
}
