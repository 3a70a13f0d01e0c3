package seed

import "ems-inventory/internal/models"

type userSeed struct {
	Username string
	FullName string
	Role     models.UserRole
}

type supplySeed struct {
	Name      string
	Category  string
	Quantity  int
	Threshold int
	Unit      string
}

type usageSeed struct {
	Supply   string
	Change   int
	Kind     models.TransactionKind
	Employee string
}

var managers = []userSeed{
	{Username: "manager1", FullName: "John Manager", Role: models.RoleManager},
	{Username: "manager2", FullName: "Sarah Manager", Role: models.RoleManager},
}

var categories = []string{
	"Airway Management",
	"Breathing & Oxygen",
	"Medications",
	"Bandages & Dressings",
	"IV Supplies",
	"Diagnostic Equipment",
	"Patient Care",
	"Trauma Supplies",
	"Personal Protection",
}

var supplies = []supplySeed{
	{"Oropharyngeal Airways (Adult)", "Airway Management", 25, 10, "units"},
	{"Nasopharyngeal Airways (Adult)", "Airway Management", 20, 8, "units"},
	{"Endotracheal Tubes 7.5mm", "Airway Management", 10, 5, "units"},
	{"Laryngoscope Blades", "Airway Management", 5, 3, "units"},
	{"Oxygen Masks (Non-Rebreather)", "Breathing & Oxygen", 30, 15, "units"},
	{"Nasal Cannulas", "Breathing & Oxygen", 40, 20, "units"},
	{"BVM (Adult)", "Breathing & Oxygen", 8, 4, "units"},
	{"Oxygen Tubing", "Breathing & Oxygen", 25, 10, "units"},
	{"Epinephrine 1mg/mL", "Medications", 20, 10, "vials"},
	{"Aspirin 325mg", "Medications", 100, 50, "tablets"},
	{"Nitroglycerin 0.4mg", "Medications", 25, 10, "tablets"},
	{"Albuterol Inhalers", "Medications", 10, 5, "units"},
	{"Naloxone (Narcan) 4mg", "Medications", 15, 8, "doses"},
	{"Gauze Pads 4x4", "Bandages & Dressings", 200, 100, "pads"},
	{"Trauma Dressings 10x30", "Bandages & Dressings", 30, 15, "units"},
	{`Elastic Bandages 4"`, "Bandages & Dressings", 40, 20, "rolls"},
	{`Medical Tape 2"`, "Bandages & Dressings", 50, 25, "rolls"},
	{"IV Catheters 18G", "IV Supplies", 50, 25, "units"},
	{"IV Catheters 20G", "IV Supplies", 50, 25, "units"},
	{"Normal Saline 1000mL", "IV Supplies", 30, 15, "bags"},
	{"IV Start Kits", "IV Supplies", 40, 20, "kits"},
	{"Blood Glucose Test Strips", "Diagnostic Equipment", 100, 50, "strips"},
	{"Pulse Oximeter Probes", "Diagnostic Equipment", 10, 5, "units"},
	{"ECG Electrodes", "Diagnostic Equipment", 200, 100, "units"},
	{"Thermometer Probe Covers", "Diagnostic Equipment", 100, 50, "units"},
	{"Emesis Bags", "Patient Care", 50, 25, "bags"},
	{"Blankets", "Patient Care", 20, 10, "units"},
	{"Sheets", "Patient Care", 30, 15, "units"},
	{"Pillows", "Patient Care", 10, 5, "units"},
	{"Tourniquets (CAT)", "Trauma Supplies", 10, 5, "units"},
	{"Chest Seals", "Trauma Supplies", 8, 4, "units"},
	{"Hemostatic Gauze", "Trauma Supplies", 10, 5, "units"},
	{"C-Collars (Adult)", "Trauma Supplies", 15, 8, "units"},
	{"Gloves (Large)", "Personal Protection", 500, 200, "pairs"},
	{"Gloves (Medium)", "Personal Protection", 500, 200, "pairs"},
	{"N95 Masks", "Personal Protection", 100, 50, "units"},
	{"Face Shields", "Personal Protection", 20, 10, "units"},
	{"Gowns", "Personal Protection", 50, 25, "units"},
}

// Only booked on a fresh inventory.
var sampleUsage = []usageSeed{
	{"Gauze Pads 4x4", -20, models.KindUse, "John Smith"},
	{"IV Catheters 18G", -5, models.KindUse, "Jane Doe"},
	{"Gloves (Large)", 100, models.KindRestock, "Supply Manager"},
	{"Epinephrine 1mg/mL", -2, models.KindUse, "Mike Johnson"},
	{"N95 Masks", -10, models.KindUse, "Sarah Williams"},
	{"Normal Saline 1000mL", 20, models.KindRestock, "Supply Manager"},
}
