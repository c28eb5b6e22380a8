package models

import (
	"time"

	"gorm.io/gorm"
)

// Post 博客文章
type Post struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                             // 主键
	Title       string         `gorm:"type:varchar(300);not null" json:"title"`                          // 标题
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                                 // 唯一标识（由标题生成）
	Content     string         `gorm:"type:text;not null" json:"content"`                                // 正文（HTML）
	MainImage   string         `gorm:"type:varchar(500)" json:"main_image"`                              // 封面图地址
	Tags        StringArray    `gorm:"type:json" json:"tags"`                                            // 标签
	Featured    bool           `gorm:"not null;default:false" json:"featured"`                           // 是否推荐
	Status      string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`    // 状态（draft/published）
	ReadingTime int            `gorm:"not null;default:0" json:"reading_time"`                           // 预计阅读分钟数
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`                                        // 首次发布时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}
