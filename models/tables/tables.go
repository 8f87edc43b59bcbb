package tables

import "time"

// UserSettings mysql 中的设置记录，一个 key 一行，value 为 JSON
type UserSettings struct {
	Id         int64     `xorm:"pk autoincr 'id'"`
	SettingKey string    `xorm:"varchar(128) notnull unique 'setting_key'"`
	Value      string    `xorm:"text notnull 'value'"`
	Version    int64     `xorm:"notnull default 0 'version'"`
	UpdateTime time.Time `xorm:"updated 'update_time'"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}
