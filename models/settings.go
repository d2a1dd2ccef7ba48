package models

import "gorm.io/datatypes"

// ProfileSettingsID is the primary key of the only settings row.
const ProfileSettingsID = 1

// ProfileSettings holds the site-wide profile shown on public pages
type ProfileSettings struct {
	ID            int               `json:"-" db:"id" gorm:"primaryKey;autoIncrement:false"`
	HeroText      string            `json:"heroText" db:"hero_text" gorm:"type:text;not null"`
	ContactEmail  string            `json:"contactEmail" db:"contact_email" gorm:"type:text;not null"`
	Socials       datatypes.JSONMap `json:"socials" db:"socials" gorm:"not null"`
	ResumeURLs    datatypes.JSONMap `json:"resumeUrls" db:"resume_urls" gorm:"not null"`
	FooterContent *string           `json:"footerContent,omitempty" db:"footer_content" gorm:"type:text"`
	FaviconURL    *string           `json:"faviconUrl,omitempty" db:"favicon_url" gorm:"type:text"`
	OgImageURL    *string           `json:"ogImageUrl,omitempty" db:"og_image_url" gorm:"type:text"`
	BannerWarning *string           `json:"bannerWarning,omitempty" db:"banner_warning" gorm:"type:text"`
}

func (ProfileSettings) TableName() string {
	return "profile_settings"
}
