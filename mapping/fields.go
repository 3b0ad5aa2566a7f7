// ABOUTME: Declarative candidate-column tables for every source export
// ABOUTME: One generic Lookup walks an ordered list of raw column names per logical field
package mapping

import (
	"strings"
	"time"

	"github.com/harperreed/leadledger/normalize"
)

// Row is one CSV record keyed by raw header name.
type Row map[string]string

// Logical field names shared by every table.
const (
	FieldEmail            = "email"
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldPhone            = "phone"
	FieldInstagram        = "instagram"
	FieldFacebook         = "facebook"
	FieldUserID           = "user_id"
	FieldMCID             = "mc_id"
	FieldGHLID            = "ghl_id"
	FieldAdID             = "ad_id"
	FieldThreadID         = "thread_id"
	FieldStage            = "stage"
	FieldAdType           = "ad_type"
	FieldPaidVsOrganic    = "paid_vs_organic"
	FieldTriggerWord      = "trigger_word"
	FieldCampaignName     = "campaign_name"
	FieldPlatform         = "platform"
	FieldSymptoms         = "symptoms"
	FieldMonthsPP         = "months_pp"
	FieldObjections       = "objections"
	FieldABTest           = "ab_test"
	FieldSentLink         = "sent_link"
	FieldClickedLink      = "clicked_link"
	FieldBooked           = "booked"
	FieldAttended         = "attended"
	FieldFirstSeen        = "first_seen"
	FieldSubscriptionDate = "subscription_date"
	FieldPurchaseDate     = "purchase_date"
	FieldPurchased        = "purchased"
	FieldTotalPurchased   = "total_purchased"
	FieldAmount           = "amount"
	FieldPaymentDate      = "payment_date"
	FieldStatus           = "status"
	FieldDescription      = "description"
	FieldType             = "type"
	FieldExternalID       = "external_id"
	FieldCurrency         = "currency"
	FieldPackageName      = "package_name"
)

// FieldSpec maps one logical field to raw column names, most preferred first.
type FieldSpec struct {
	Field      string
	Candidates []string
}

// Table is the full mapping for one source export.
type Table []FieldSpec

// Candidates returns the raw column names for field, or nil if the table
// does not carry it.
func (t Table) Candidates(field string) []string {
	for _, entry := range t {
		if entry.Field == field {
			return entry.Candidates
		}
	}
	return nil
}

// Value looks field up in row.
func (t Table) Value(row Row, field string) (string, bool) {
	return Lookup(row, t.Candidates(field))
}

// Text returns field as a trimmed string pointer, nil when absent.
func (t Table) Text(row Row, field string) *string {
	v, ok := t.Value(row, field)
	if !ok {
		return nil
	}
	return normalize.Text(v)
}

// Date returns field parsed as a date, nil when absent or unparsable.
func (t Table) Date(row Row, field string) *time.Time {
	v, ok := t.Value(row, field)
	if !ok {
		return nil
	}
	return normalize.DatePtr(v)
}

// Lookup returns the trimmed value of the first candidate column that holds a
// non-empty value. Columns missing from the row and placeholder cells such as
// "nan" are passed over.
func Lookup(row Row, candidates []string) (string, bool) {
	for _, name := range candidates {
		v, ok := row[name]
		if !ok || normalize.IsMissing(v) {
			continue
		}
		return strings.TrimSpace(v), true
	}
	return "", false
}

// FirstValid tries each candidate in order and returns the first value that
// the normalizer accepts. Unlike Lookup it keeps going past a populated but
// invalid cell.
func FirstValid(row Row, candidates []string, norm func(string) (string, bool)) (string, bool) {
	for _, name := range candidates {
		v, ok := row[name]
		if !ok || normalize.IsMissing(v) {
			continue
		}
		if out, ok := norm(v); ok {
			return out, true
		}
	}
	return "", false
}

// GoogleSheetsFields maps the CRM spreadsheet export used by `import sheets`.
var GoogleSheetsFields = Table{
	{FieldEmail, []string{"email", "Email", "email_primary", "Email Address"}},
	{FieldFirstName, []string{"first_name", "First Name", "firstname", "FirstName"}},
	{FieldLastName, []string{"last_name", "Last Name", "lastname", "LastName"}},
	{FieldPhone, []string{"phone", "Phone", "phone_number", "Phone Number"}},
	{FieldAdType, []string{"ad_type", "Ad Type", "traffic_source"}},
	{FieldTriggerWord, []string{"trigger_word", "Trigger Word", "keyword", "Keyword"}},
	{FieldCampaignName, []string{"campaign", "Campaign", "campaign_name"}},
	{FieldFirstSeen, []string{"timestamp", "Timestamp", "created", "Created", "date_added", "Date Added"}},
	{FieldPurchaseDate, []string{"purchase_date", "Purchase Date", "paid_date", "payment_date"}},
	{FieldPurchased, []string{"purchased", "has_purchased", "paid"}},
}

// AirtableFields maps the contacts-database export used by `import airtable`.
var AirtableFields = Table{
	{FieldEmail, []string{"email", "Email", "Email Address", "email_primary", "Primary Email"}},
	{FieldFirstName, []string{"first_name", "First Name", "firstname", "Name (First)"}},
	{FieldLastName, []string{"last_name", "Last Name", "lastname", "Name (Last)"}},
	{FieldPhone, []string{"phone", "Phone", "Phone Number", "Mobile"}},
	{FieldAdType, []string{"ad_type", "Ad Type", "Traffic Source", "traffic_source", "Source"}},
	{FieldCampaignName, []string{"campaign", "Campaign", "Campaign Name", "campaign_name", "Ad Campaign"}},
	{FieldTriggerWord, []string{"trigger_word", "Trigger Word", "Keyword", "keyword", "Bot Keyword"}},
	{FieldAdID, []string{"ad_id", "Ad ID", "FB Ad ID", "Meta Ad ID"}},
	{FieldFirstSeen, []string{"created", "Created", "Created Time", "Date Added", "First Contact"}},
	{FieldPurchaseDate, []string{"purchase_date", "Purchase Date", "Paid Date", "Payment Date"}},
	{FieldPurchased, []string{"purchased", "Purchased", "Has Purchased"}},
}

// StripeFields maps a Stripe payments export used by `import payments`.
var StripeFields = Table{
	{FieldEmail, []string{"Customer Email", "customer_email", "Email", "email", "Customer"}},
	{FieldAmount, []string{"Amount", "Amount (USD)", "Gross", "amount", "Total"}},
	{FieldPaymentDate, []string{"Created", "created", "Date", "Created (UTC)", "Timestamp"}},
	{FieldStatus, []string{"Status", "status"}},
	{FieldDescription, []string{"Description", "description"}},
	{FieldType, []string{"Type", "type"}},
	{FieldExternalID, []string{"id", "ID", "Charge ID", "charge_id", "Transaction ID"}},
	{FieldCurrency, []string{"Currency", "currency"}},
	{FieldPackageName, []string{"package_name (metadata)", "Package", "package_name"}},
}

// DenefitsFields maps a Denefits financing export used by `import payments`.
var DenefitsFields = Table{
	{FieldEmail, []string{"Customer Email", "customer_email", "Email", "email"}},
	{FieldAmount, []string{"Financed Amount", "financed_amount", "Amount Financed", "Loan Amount", "Total"}},
	{FieldPaymentDate, []string{"Created", "created", "Contract Date", "Date", "Start Date"}},
	{FieldExternalID, []string{"Contract ID", "contract_id", "ID", "id"}},
	{FieldStatus, []string{"Payment Plan Status", "Status", "status"}},
}

// GoogleMainFields maps the main CRM sheet consumed by `unify`.
var GoogleMainFields = Table{
	{FieldEmail, []string{"Email Address"}},
	{FieldFirstName, []string{"First Name"}},
	{FieldLastName, []string{"Last Name"}},
	{FieldPhone, []string{"Phone Number"}},
	{FieldInstagram, []string{"Instagram Name"}},
	{FieldFacebook, []string{"Facebook Name"}},
	{FieldUserID, []string{"User ID"}},
	{FieldSubscriptionDate, []string{"Subscription Date"}},
	{FieldStage, []string{"Stage"}},
	{FieldSymptoms, []string{"Symptoms"}},
	{FieldMonthsPP, []string{"Months PP"}},
	{FieldObjections, []string{"Objections"}},
	{FieldTriggerWord, []string{"TRIGGER WORD"}},
	{FieldPaidVsOrganic, []string{"PAID VS ORGANIC"}},
	{FieldPlatform, []string{"IG or FB"}},
	{FieldABTest, []string{"AB - Testing 1"}},
	{FieldTotalPurchased, []string{"Total Purchased"}},
	{FieldSentLink, []string{"Sent Link"}},
	{FieldClickedLink, []string{"Clicked Link"}},
	{FieldBooked, []string{"Booked Paid DC", "Booked Free DC"}},
	{FieldAttended, []string{"Attended Paid DC", "Attended Free DC"}},
}

// AirtableUnifiedFields maps the upper-case Airtable export consumed by `unify`.
var AirtableUnifiedFields = Table{
	{FieldEmail, []string{"EMAIL", "Email (Norm)"}},
	{FieldFirstName, []string{"FIRST_NAME"}},
	{FieldLastName, []string{"LAST_NAME"}},
	{FieldPhone, []string{"PHONE"}},
	{FieldInstagram, []string{"IG_USERNAME"}},
	{FieldMCID, []string{"MC_ID"}},
	{FieldGHLID, []string{"GHL_ID"}},
	{FieldAdID, []string{"AD_ID"}},
	{FieldThreadID, []string{"THREAD_ID"}},
	{FieldTriggerWord, []string{"TRIGGER_WORD"}},
	{FieldPaidVsOrganic, []string{"PAID_VS_ORGANIC"}},
	{FieldStage, []string{"STAGE"}},
	{FieldSubscriptionDate, []string{"SUBSCRIBED_DATE"}},
	{FieldPurchaseDate, []string{"DATE_SET_PURCHASE"}},
}

// GoogleSimpleFields maps the simplified sheet, which only enriches ids.
var GoogleSimpleFields = Table{
	{FieldEmail, []string{"Email Address"}},
	{FieldThreadID, []string{"Thread ID"}},
	{FieldAdID, []string{"Ad_Id"}},
}

// StripeLedgerFields maps the unified Stripe ledger consumed by `unify`.
var StripeLedgerFields = Table{
	{FieldEmail, []string{"email (metadata)", "Customer Email"}},
	{FieldAmount, []string{"Amount"}},
	{FieldPaymentDate, []string{"Created date (UTC)"}},
	{FieldStatus, []string{"Status"}},
	{FieldPackageName, []string{"package_name (metadata)"}},
	{FieldExternalID, []string{"id", "ID"}},
}

// DenefitsContractFields maps the Denefits contract list consumed by `unify`.
var DenefitsContractFields = Table{
	{FieldEmail, []string{"Customer Email"}},
	{FieldAmount, []string{"Payment Plan Amount"}},
	{FieldPaymentDate, []string{"Payment Plan Sign Up Date"}},
	{FieldStatus, []string{"Payment Plan Status"}},
	{FieldExternalID, []string{"Contract ID", "ID"}},
}
