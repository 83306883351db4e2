package models

type TrapType string

const (
	TrapTypeHoneypot          TrapType = "Honeypot"
	TrapTypeMonitoring        TrapType = "MonitoringTrap"
	TrapTypeReentrancyGuard   TrapType = "ReentrancyGuard"
	TrapTypeFlashLoanDetector TrapType = "FlashLoanDetector"
)
