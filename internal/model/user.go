package model

type User struct {
	ID          string             `json:"id" bson:"_id"`
	FullName    string             `json:"full_name" bson:"full_name"`
	Email       string             `json:"email,omitempty" bson:"email,omitempty"`
	AvatarURL   string             `json:"avatar_url,omitempty" bson:"profile_image,omitempty"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	Preferences ProfilePreferences `json:"profile_preferences" bson:"profile_preferences"`
}

type Post struct {
	ID       string `json:"id" bson:"_id"`
	AuthorID string `json:"author_id" bson:"author_id"`
	Content  string `json:"content" bson:"content"`
}
