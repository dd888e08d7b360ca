package model

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&Project{},
		&ContactInfo{},
		&Enquiry{},
	}
}
