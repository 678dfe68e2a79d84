package model

import "time"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DefaultCategories is the fixed topic set posts are tagged with.
func DefaultCategories() []string {
	return []string{
		"くだらない日常",
		"インターネット文化",
		"ゲーム",
		"ポップカルチャー",
		"アニメ・コスプレ",
		"今日の飯ログ",
		"買ったもの・戦利品",
		"雑談なんでも",
	}
}

// ValidCategory reports whether name is one of the fixed topics.
func ValidCategory(name string) bool {
	for _, c := range DefaultCategories() {
		if c == name {
			return true
		}
	}
	return false
}
