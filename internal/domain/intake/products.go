package intake

// Fees charged on top of the plan price, in shekels.
const (
	ConsultationFee = 30
	ShippingFee     = 0
)

// DefaultPlanID is the plan assumed when the client names none.
const DefaultPlanID = "neffy_single"

const neffySig = "For emergency use: Spray into one nostril at the first sign of an allergic reaction (anaphylaxis). If symptoms continue or worsen after 5 minutes, administer a second dose in the same nostril using a new device."

// Medications is the pharmacy catalog keyed by internal name. The medIds
// are placeholders until the pharmacy issues real ones.
var Medications = map[string]Medication{
	"neffy_2pack": {
		MedID:    "NEFFY_2PACK_PLACEHOLDER",
		Name:     "neffy (epinephrine nasal spray) 2mg",
		Strength: "2mg",
		Quantity: "2",
		Refills:  "0",
		Dispense: "device",
		Days:     365,
		Sig:      neffySig,
	},
	"neffy_4pack": {
		MedID:    "NEFFY_4PACK_PLACEHOLDER",
		Name:     "neffy (epinephrine nasal spray) 2mg",
		Strength: "2mg",
		Quantity: "4",
		Refills:  "0",
		Dispense: "device",
		Days:     365,
		Sig:      neffySig,
	},
}

// Products lists the plans offered at plan selection.
func Products() []Product {
	return []Product{
		{
			ID:             DefaultPlanID,
			Label:          "neffy® Twin Pack (2 devices)",
			Description:    "2 neffy devices for emergency anaphylaxis treatment",
			Duration:       12,
			Quantity:       2,
			PricePerDevice: 199,
			TotalPrice:     199,
			Medication:     Medications["neffy_2pack"],
		},
	}
}

// ProductByID looks up a plan.
func ProductByID(id string) (Product, bool) {
	for _, p := range Products() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
