package marketo

// Operation names in the embedded catalog. Any of them can be passed to
// Execute or ExecuteRaw directly.
const (
	OpGetLead             = "getLead"
	OpGetLeadsByFilter    = "getLeadsByFilter"
	OpGetLeadsByListID    = "getLeadsByListId"
	OpCreateUpdateLeads   = "createUpdateLeads"
	OpDeleteLeads         = "deleteLeads"
	OpDescribeLeads       = "describeLeads"
	OpMergeLeads          = "mergeLeads"
	OpAssociateLead       = "associateLead"
	OpGetLeadPartitions   = "getLeadPartitions"
	OpGetLeadChanges      = "getLeadChanges"
	OpGetList             = "getList"
	OpGetLists            = "getLists"
	OpAddLeadsToList      = "addLeadsToList"
	OpRemoveLeadsFromList = "removeLeadsFromList"
	OpMemberOfList        = "memberOfList"
	OpGetCampaign         = "getCampaign"
	OpGetCampaigns        = "getCampaigns"
	OpRequestCampaign     = "requestCampaign"
	OpScheduleCampaign    = "scheduleCampaign"
	OpGetActivityTypes    = "getActivityTypes"
	OpGetPagingToken      = "getPagingToken"
	OpGetLeadActivities   = "getLeadActivities"
	OpAddCustomActivities = "addCustomActivities"

	OpListCustomObjects         = "listCustomObjects"
	OpDescribeCustomObject      = "describeCustomObject"
	OpGetCustomObjects          = "getCustomObjects"
	OpCreateUpdateCustomObjects = "createUpdateCustomObjects"
	OpDeleteCustomObjects       = "deleteCustomObjects"
	OpDescribeCompanies         = "describeCompanies"
	OpGetCompanies              = "getCompanies"
	OpCreateUpdateCompanies     = "createUpdateCompanies"
	OpDeleteCompanies           = "deleteCompanies"
	OpDescribeOpportunities     = "describeOpportunities"
	OpGetOpportunities          = "getOpportunities"
	OpCreateUpdateOpportunities = "createUpdateOpportunities"
	OpDeleteOpportunities       = "deleteOpportunities"
	OpDescribeOpportunityRoles  = "describeOpportunityRoles"
	OpGetOpportunityRoles       = "getOpportunityRoles"
	OpDescribeSalesPersons      = "describeSalesPersons"
	OpGetSalesPersons           = "getSalesPersons"
	OpDescribeNamedAccounts     = "describeNamedAccounts"
	OpGetNamedAccounts          = "getNamedAccounts"

	OpImportLeads         = "importLeads"
	OpImportLeadsStatus   = "importLeadsStatus"
	OpImportLeadsFailures = "importLeadsFailures"
	OpImportLeadsWarnings = "importLeadsWarnings"

	OpGetEmail          = "getEmail"
	OpGetEmails         = "getEmails"
	OpGetEmailContent   = "getEmailContent"
	OpApproveEmail      = "approveEmail"
	OpSendSampleEmail   = "sendSampleEmail"
	OpGetEmailTemplates = "getEmailTemplates"
)

// Object families with filter lookups and describe calls.
const (
	FamilyCustomObjects    = "customobjects"
	FamilyCompanies        = "companies"
	FamilyOpportunities    = "opportunities"
	FamilyOpportunityRoles = "opportunityroles"
	FamilySalesPersons     = "salespersons"
	FamilyNamedAccounts    = "namedaccounts"
)

type familyOps struct {
	get      string
	describe string
}

var families = map[string]familyOps{
	FamilyCustomObjects:    {get: OpGetCustomObjects, describe: OpDescribeCustomObject},
	FamilyCompanies:        {get: OpGetCompanies, describe: OpDescribeCompanies},
	FamilyOpportunities:    {get: OpGetOpportunities, describe: OpDescribeOpportunities},
	FamilyOpportunityRoles: {get: OpGetOpportunityRoles, describe: OpDescribeOpportunityRoles},
	FamilySalesPersons:     {get: OpGetSalesPersons, describe: OpDescribeSalesPersons},
	FamilyNamedAccounts:    {get: OpGetNamedAccounts, describe: OpDescribeNamedAccounts},
}

func resolveFamily(family string) (familyOps, error) {
	ops, ok := families[family]
	if !ok {
		return familyOps{}, &BuildError{Operation: "family:" + family, Param: "family", Msg: "unknown object family"}
	}
	return ops, nil
}

// withOptional sets key only when v is not a zero value.
func withOptional(args Args, key string, v any) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return
		}
	case int:
		if t == 0 {
			return
		}
	case []string:
		if len(t) == 0 {
			return
		}
	case []int:
		if len(t) == 0 {
			return
		}
	case nil:
		return
	}
	args[key] = v
}
