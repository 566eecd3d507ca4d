package models

// Role константы ролей аккаунтов
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// ValidRoles список ролей, доступных при регистрации
var ValidRoles = map[string]struct{}{
	RoleTeacher: {},
	RoleStudent: {},
}
