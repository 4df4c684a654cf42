package models

import "strings"

// Entity types that carry a guarded status.
const (
	EntityProject  = "PROJECT"
	EntityCustomer = "CUSTOMER"
	EntityEstimate = "ESTIMATE"
)

// Project statuses
const (
	ProjectStatusPending    = "Pending"
	ProjectStatusApproved   = "Approved"
	ProjectStatusInProgress = "In Progress"
	ProjectStatusCompleted  = "Completed"
	ProjectStatusCanceled   = "Canceled"
	ProjectStatusClosed     = "Closed"
)

// Customer statuses
const (
	CustomerStatusActive   = "Active"
	CustomerStatusInactive = "Inactive"
	CustomerStatusPending  = "Pending"
	CustomerStatusArchived = "Archived"
)

// Estimate statuses
const (
	EstimateStatusPending  = "Pending"
	EstimateStatusApproved = "Approved"
	EstimateStatusRejected = "Rejected"
)

// StatusTransitions is the registry of allowed moves: entity -> from -> []to.
// A status with an empty row is terminal.
var StatusTransitions = map[string]map[string][]string{
	EntityProject: {
		ProjectStatusPending:    {ProjectStatusApproved, ProjectStatusCanceled},
		ProjectStatusApproved:   {ProjectStatusInProgress, ProjectStatusCanceled},
		ProjectStatusInProgress: {ProjectStatusCompleted, ProjectStatusCanceled},
		ProjectStatusCompleted:  {ProjectStatusClosed},
		ProjectStatusCanceled:   {ProjectStatusPending, ProjectStatusClosed},
		ProjectStatusClosed:     {},
	},
	EntityCustomer: {
		CustomerStatusPending:  {CustomerStatusActive, CustomerStatusInactive, CustomerStatusArchived},
		CustomerStatusActive:   {CustomerStatusInactive, CustomerStatusArchived},
		CustomerStatusInactive: {CustomerStatusActive, CustomerStatusArchived},
		CustomerStatusArchived: {CustomerStatusActive},
	},
	EntityEstimate: {
		EstimateStatusPending:  {EstimateStatusApproved, EstimateStatusRejected},
		EstimateStatusRejected: {EstimateStatusPending},
		EstimateStatusApproved: {},
	},
}

// Older screens wrote a second project vocabulary; these map onto the current one.
var legacyProjectStatuses = map[string]string{
	"Estimate":  ProjectStatusPending,
	"Cancelled": ProjectStatusCanceled,
}

// IsTransitionAllowed reports whether entityType may move from current to proposed.
// Unknown entity types and statuses are rejected.
func IsTransitionAllowed(entityType, current, proposed string) bool {
	for _, s := range StatusTransitions[entityType][current] {
		if s == proposed {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the registry row for (entityType, current).
func AllowedTransitions(entityType, current string) []string {
	row := StatusTransitions[entityType][current]
	out := make([]string, len(row))
	copy(out, row)
	return out
}

// IsKnownStatus reports whether status is part of entityType's vocabulary.
func IsKnownStatus(entityType, status string) bool {
	_, ok := StatusTransitions[entityType][status]
	return ok
}

// NormalizeProjectStatus trims input and maps legacy spellings.
func NormalizeProjectStatus(status string) string {
	status = strings.TrimSpace(status)
	if mapped, ok := legacyProjectStatuses[status]; ok {
		return mapped
	}
	return status
}

// Modules gated by project status.
const (
	ModuleTimeLogs          = "TimeLogs"
	ModuleMaterialsReceipts = "MaterialsReceipts"
	ModuleSubInvoices       = "SubInvoices"
	ModuleEstimates         = "Estimates"
	ModuleCustomers         = "Customers"
	ModuleProjects          = "Projects"
	ModuleEmployees         = "Employees"
	ModuleVendors           = "Vendors"
)

// ModuleAccess lists the project statuses in which a cost module accepts new records.
var ModuleAccess = map[string][]string{
	ModuleTimeLogs:          {ProjectStatusApproved, ProjectStatusInProgress, ProjectStatusCompleted},
	ModuleMaterialsReceipts: {ProjectStatusApproved, ProjectStatusInProgress, ProjectStatusCompleted},
	ModuleSubInvoices:       {ProjectStatusApproved, ProjectStatusInProgress, ProjectStatusCompleted},
	ModuleEstimates:         {ProjectStatusPending, ProjectStatusApproved},
}

func IsModuleAccessible(module, projectStatus string) bool {
	for _, s := range ModuleAccess[module] {
		if s == projectStatus {
			return true
		}
	}
	return false
}
