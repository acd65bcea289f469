package storage

// DefaultSettings mirrors what a fresh user record implies.
func DefaultSettings() UserSettings {
	return UserSettings{
		Language:      "en",
		Notifications: true,
		Autoplay:      true,
	}
}

func (s *Storage) Settings(userID string) (UserSettings, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return UserSettings{}, err
	}
	if record.Settings == nil {
		return DefaultSettings(), nil
	}
	return *record.Settings, nil
}

func (s *Storage) SaveSettings(userID string, settings UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return err
	}
	record.Settings = &settings
	s.saveUserRecord(userID, record)
	return nil
}
