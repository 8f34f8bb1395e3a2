package model

import (
	"fmt"
	"strings"
	"time"
)

// Chakra is the content category assigned to a post at creation.
type Chakra string

const (
	ChakraRoot     Chakra = "root"
	ChakraSacral   Chakra = "sacral"
	ChakraSolar    Chakra = "solar"
	ChakraHeart    Chakra = "heart"
	ChakraThroat   Chakra = "throat"
	ChakraThirdEye Chakra = "third_eye"
	ChakraCrown    Chakra = "crown"
)

// Chakras lists every category in ascending order, root to crown.
var Chakras = []Chakra{ChakraRoot, ChakraSacral, ChakraSolar, ChakraHeart, ChakraThroat, ChakraThirdEye, ChakraCrown}

func (c Chakra) Valid() bool {
	switch c {
	case ChakraRoot, ChakraSacral, ChakraSolar, ChakraHeart, ChakraThroat, ChakraThirdEye, ChakraCrown:
		return true
	}
	return false
}

// ParseChakra accepts only the exact lower-case category names.
func ParseChakra(s string) (Chakra, error) {
	c := Chakra(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChakraCategory, s)
	}
	return c, nil
}

// PostType is the content format variant. It does not affect scoring.
type PostType string

const (
	PostTypePost   PostType = "post"
	PostTypeSpark  PostType = "spark"
	PostTypeVision PostType = "vision"
)

func (p PostType) Valid() bool {
	return p == PostTypePost || p == PostTypeSpark || p == PostTypeVision
}

func ParsePostType(s string) (PostType, error) {
	if s == "" {
		return PostTypePost, nil
	}
	p := PostType(strings.ToLower(s))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPostType, s)
	}
	return p, nil
}

// EngagementType is a single kind of user action against a post.
type EngagementType string

const (
	EngagementNone     EngagementType = ""
	EngagementUpvote   EngagementType = "upvote"
	EngagementDownvote EngagementType = "downvote"
	EngagementLike     EngagementType = "like"
	EngagementEnergy   EngagementType = "energy"
)

// EngagementTypes lists the concrete engagement kinds.
var EngagementTypes = []EngagementType{EngagementUpvote, EngagementDownvote, EngagementLike, EngagementEnergy}

func (t EngagementType) Valid() bool {
	switch t {
	case EngagementUpvote, EngagementDownvote, EngagementLike, EngagementEnergy:
		return true
	}
	return false
}

// IsVote reports whether t occupies the shared up/down vote slot.
func (t EngagementType) IsVote() bool {
	return t == EngagementUpvote || t == EngagementDownvote
}

// Opposite returns the other vote for upvote/downvote and none otherwise.
func (t EngagementType) Opposite() EngagementType {
	switch t {
	case EngagementUpvote:
		return EngagementDownvote
	case EngagementDownvote:
		return EngagementUpvote
	}
	return EngagementNone
}

func ParseEngagementType(s string) (EngagementType, error) {
	t := EngagementType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return EngagementNone, fmt.Errorf("%w: %q", ErrInvalidEngagementType, s)
	}
	return t, nil
}

// Element is the cosmetic elemental type of a spirit, fixed at creation.
type Element string

const (
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
)

var Elements = []Element{ElementFire, ElementWater, ElementEarth, ElementAir}

func (e Element) Valid() bool {
	return e == ElementFire || e == ElementWater || e == ElementEarth || e == ElementAir
}

func ParseElement(s string) (Element, error) {
	e := Element(strings.ToLower(s))
	if !e.Valid() {
		return "", fmt.Errorf("invalid element %q", s)
	}
	return e, nil
}

// UserStatus is a soft lifecycle state. Users are never hard-deleted.
type UserStatus string

const (
	UserActive      UserStatus = "active"
	UserSuspended   UserStatus = "suspended"
	UserDeactivated UserStatus = "deactivated"
)

// User represents the fields of an account the engine reads and writes.
type User struct {
	ID              string
	Email           string
	Username        string
	Aura            int
	Energy          int
	EnergyLastReset time.Time
	IsPremium       bool
	Status          UserStatus
	CreatedAt       time.Time
}

// Post is a piece of user content with its cached frequency score.
type Post struct {
	ID        string
	AuthorID  string
	Chakra    Chakra
	Type      PostType
	Content   string
	Frequency int
	CreatedAt time.Time
}

// Engagement is one active user action on a post.
type Engagement struct {
	PostID    string
	UserID    string
	Type      EngagementType
	CreatedAt time.Time
}

// Spirit is the per-user companion that levels with experience.
type Spirit struct {
	UserID     string
	Element    Element
	Experience int
	Level      int
	Evolution  []EvolutionEntry
	CreatedAt  time.Time
}

// EvolutionEntry is one audit record of an experience award.
type EvolutionEntry struct {
	Action         string
	ExperienceGain int
	LeveledUp      bool
	NewLevel       int
	Timestamp      time.Time
}
