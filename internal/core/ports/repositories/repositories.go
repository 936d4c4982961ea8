package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// The non-transactional repositories serve reads of committed state; mutations go
// through UnitOfWork.
type RepositoryProvider struct {
	AccountRepo        AccountRepositoryFacade
	JournalRepo        JournalRepositoryFacade
	NumberingRepo      NumberingRepository
	BankAccountRepo    BankAccountRepositoryFacade
	PaymentDraftRepo   PaymentDraftRepositoryFacade
	SupplierLedgerRepo SupplierLedgerRepositoryFacade
	AuditRepo          AuditLogRepository
	UnitOfWork         UnitOfWork
}
