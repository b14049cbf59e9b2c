package users

import "github.com/jrsteele09/go-session-client/internal/utils"

// Country is the country a user registered with.
type Country struct {
	ID       int    `json:"country_id"`
	Code     string `json:"country_code"`
	Name     string `json:"country_name"`
	FlagIcon string `json:"flag_icon"`
}

// Stats are the aggregate activity counters shown on the profile screen.
type Stats struct {
	PostCount       int `json:"postCount"`
	CommentCount    int `json:"commentCount"`
	LikedPostsCount int `json:"likedPostsCount"`
	FollowersCount  int `json:"followersCount"`
	FollowingCount  int `json:"followingCount"`
}

// Profile is the denormalized snapshot returned by GET /users/me.
type Profile struct {
	ID                int     `json:"user_id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	Bio               string  `json:"bio"`
	Role              string  `json:"role"`
	AccountStatus     string  `json:"account_status"`
	ProfilePictureURL string  `json:"profile_picture_url"`
	Level             int     `json:"level"`
	Points            int     `json:"points"`
	TodayTaskCount    int     `json:"today_task_count"`
	CreatedAt         string  `json:"created_at"`
	LastLoginAt       string  `json:"last_login_at"`
	Country           Country `json:"country"`
	Stats             Stats   `json:"stats"`

	TermsAgreed   bool `json:"terms_agreed"`   // Terms of service accepted
	PrivacyAgreed bool `json:"privacy_agreed"` // Privacy policy accepted
}

// ComplianceAccepted reports whether both terms and privacy policy have been agreed to.
func (p *Profile) ComplianceAccepted() bool {
	return p != nil && p.TermsAgreed && p.PrivacyAgreed
}

// Clone returns a copy that shares nothing with p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// CountPatch carries the counters of a "_count" aggregate. Nil fields are left untouched.
type CountPatch struct {
	PostCount       *int `json:"postCount,omitempty"`
	CommentCount    *int `json:"commentCount,omitempty"`
	LikedPostsCount *int `json:"likedPostsCount,omitempty"`
	FollowersCount  *int `json:"followersCount,omitempty"`
	FollowingCount  *int `json:"followingCount,omitempty"`
}

// ProfilePatch is the restricted set of fields that can be merged into a loaded profile,
// typically taken from the response of an action that awards points or completes a task.
type ProfilePatch struct {
	TodayTaskCount *int        `json:"today_task_count,omitempty"`
	Points         *int        `json:"points,omitempty"`
	Count          *CountPatch `json:"_count,omitempty"`
}

// Apply returns a copy of p with the patch merged in. Counters shallow-merge into Stats.
func (p *Profile) Apply(patch ProfilePatch) *Profile {
	if p == nil {
		return nil
	}
	out := p.Clone()
	utils.Assign(&out.TodayTaskCount, patch.TodayTaskCount)
	utils.Assign(&out.Points, patch.Points)
	if c := patch.Count; c != nil {
		utils.Assign(&out.Stats.PostCount, c.PostCount)
		utils.Assign(&out.Stats.CommentCount, c.CommentCount)
		utils.Assign(&out.Stats.LikedPostsCount, c.LikedPostsCount)
		utils.Assign(&out.Stats.FollowersCount, c.FollowersCount)
		utils.Assign(&out.Stats.FollowingCount, c.FollowingCount)
	}
	return out
}
