package db

// MockDatabaseClient is a function-field test double for DatabaseClient. Funcs
// left nil make the corresponding method a no-op returning zero values, so
// tests only wire what they assert on.
type MockDatabaseClient struct {
	CalledUpsertDomain          bool
	CalledInsertDomainIfAbsent  bool
	CalledListDomains           bool
	CalledDeleteDomain          bool
	CalledGetDomainToken        bool
	CalledInsertQueuedEmail     bool
	CalledListQueuedEmails      bool
	CalledRecordDeliveryFailure bool
	CalledMoveToArchive         bool
	CalledMoveToDeadLetter      bool
	CalledInsertArchivedEmail   bool
	CalledCullArchive           bool

	UpsertDomainFunc          func(domain, token string, createdAt int64) error
	InsertDomainIfAbsentFunc  func(domain, token string, createdAt int64) (bool, error)
	ListDomainsFunc           func() ([]Domain, error)
	DeleteDomainFunc          func(domain string) (bool, error)
	GetDomainTokenFunc        func(domain string) (string, bool, error)
	InsertQueuedEmailFunc     func(email *QueuedEmail) error
	ListQueuedEmailsFunc      func() ([]QueuedEmail, error)
	RecordDeliveryFailureFunc func(id string, lastError string) error
	MoveToArchiveFunc         func(queueID string, archived *ArchivedEmail) error
	MoveToDeadLetterFunc      func(dead *DeadEmail) error
	InsertArchivedEmailFunc   func(email *ArchivedEmail) error
	CullArchiveFunc           func(maxRows int64) (int64, error)
	CountQueuedEmailsFunc     func() (int64, error)
	CountArchivedEmailsFunc   func() (int64, error)
	GetSettingFunc            func(key string) (string, bool, error)
	SetSettingFunc            func(key, value string) error
}

var _ DatabaseClient = (*MockDatabaseClient)(nil)

func (m *MockDatabaseClient) UpsertDomain(domain, token string, createdAt int64) error {
	m.CalledUpsertDomain = true
	if m.UpsertDomainFunc == nil {
		return nil
	}
	return m.UpsertDomainFunc(domain, token, createdAt)
}

func (m *MockDatabaseClient) InsertDomainIfAbsent(domain, token string, createdAt int64) (bool, error) {
	m.CalledInsertDomainIfAbsent = true
	if m.InsertDomainIfAbsentFunc == nil {
		return false, nil
	}
	return m.InsertDomainIfAbsentFunc(domain, token, createdAt)
}

func (m *MockDatabaseClient) ListDomains() ([]Domain, error) {
	m.CalledListDomains = true
	if m.ListDomainsFunc == nil {
		return nil, nil
	}
	return m.ListDomainsFunc()
}

func (m *MockDatabaseClient) DeleteDomain(domain string) (bool, error) {
	m.CalledDeleteDomain = true
	if m.DeleteDomainFunc == nil {
		return false, nil
	}
	return m.DeleteDomainFunc(domain)
}

func (m *MockDatabaseClient) GetDomainToken(domain string) (string, bool, error) {
	m.CalledGetDomainToken = true
	if m.GetDomainTokenFunc == nil {
		return "", false, nil
	}
	return m.GetDomainTokenFunc(domain)
}

func (m *MockDatabaseClient) InsertQueuedEmail(email *QueuedEmail) error {
	m.CalledInsertQueuedEmail = true
	if m.InsertQueuedEmailFunc == nil {
		return nil
	}
	return m.InsertQueuedEmailFunc(email)
}

func (m *MockDatabaseClient) ListQueuedEmails() ([]QueuedEmail, error) {
	m.CalledListQueuedEmails = true
	if m.ListQueuedEmailsFunc == nil {
		return nil, nil
	}
	return m.ListQueuedEmailsFunc()
}

func (m *MockDatabaseClient) RecordDeliveryFailure(id string, lastError string) error {
	m.CalledRecordDeliveryFailure = true
	if m.RecordDeliveryFailureFunc == nil {
		return nil
	}
	return m.RecordDeliveryFailureFunc(id, lastError)
}

func (m *MockDatabaseClient) MoveToArchive(queueID string, archived *ArchivedEmail) error {
	m.CalledMoveToArchive = true
	if m.MoveToArchiveFunc == nil {
		return nil
	}
	return m.MoveToArchiveFunc(queueID, archived)
}

func (m *MockDatabaseClient) MoveToDeadLetter(dead *DeadEmail) error {
	m.CalledMoveToDeadLetter = true
	if m.MoveToDeadLetterFunc == nil {
		return nil
	}
	return m.MoveToDeadLetterFunc(dead)
}

func (m *MockDatabaseClient) InsertArchivedEmail(email *ArchivedEmail) error {
	m.CalledInsertArchivedEmail = true
	if m.InsertArchivedEmailFunc == nil {
		return nil
	}
	return m.InsertArchivedEmailFunc(email)
}

func (m *MockDatabaseClient) CullArchive(maxRows int64) (int64, error) {
	m.CalledCullArchive = true
	if m.CullArchiveFunc == nil {
		return 0, nil
	}
	return m.CullArchiveFunc(maxRows)
}

func (m *MockDatabaseClient) CountQueuedEmails() (int64, error) {
	if m.CountQueuedEmailsFunc == nil {
		return 0, nil
	}
	return m.CountQueuedEmailsFunc()
}

func (m *MockDatabaseClient) CountArchivedEmails() (int64, error) {
	if m.CountArchivedEmailsFunc == nil {
		return 0, nil
	}
	return m.CountArchivedEmailsFunc()
}

func (m *MockDatabaseClient) GetSetting(key string) (string, bool, error) {
	if m.GetSettingFunc == nil {
		return "", false, nil
	}
	return m.GetSettingFunc(key)
}

func (m *MockDatabaseClient) SetSetting(key, value string) error {
	if m.SetSettingFunc == nil {
		return nil
	}
	return m.SetSettingFunc(key, value)
}
