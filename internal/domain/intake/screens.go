package intake

// Screens returns the questionnaire in presentation order. The "anaphylaxis"
// answer opens a Yes branch and a No branch that converge at
// "severe-allergy-diagnosis". Every visibility rule references an earlier
// screen.
func Screens() []Screen {
	return []Screen{
		{ID: "landing", Type: ScreenLanding},
		{ID: "consent", Type: ScreenConsent, Title: "Terms & Privacy"},
		{ID: "dob", Type: ScreenDOB, Title: "Date of Birth"},
		{
			ID:          "anaphylaxis",
			Type:        ScreenYesNo,
			Title:       "Have you experienced anaphylaxis?",
			Subtitle:    "Anaphylaxis is a severe, potentially life-threatening allergic reaction that can occur rapidly and affect multiple body systems. It is a medical emergency that happens when the body's immune system overreacts to an allergen, causing symptoms like trouble breathing, swelling, and a sudden drop in blood pressure.",
			QuestionKey: "Have you experienced anaphylaxis? POSSIBLE ANSWERS: Yes; No",
		},
		{
			ID:          "anaphylaxis-er",
			Type:        ScreenYesNo,
			Title:       "Did the anaphylaxis require emergency room care or other medical treatment?",
			QuestionKey: "Did the anaphylaxis require emergency room care or other medical treatment? POSSIBLE ANSWERS: Yes; No",
			ShowIf:      Rule{Equals("anaphylaxis", "Yes")},
		},
		{
			ID:          "anaphylaxis-epi-use",
			Type:        ScreenYesNo,
			Title:       "Did you need to administer epinephrine (like an EpiPen) when you experienced anaphylaxis?",
			QuestionKey: "Did you need to administer epinephrine (like an EpiPen) when you experienced anaphylaxis? POSSIBLE ANSWERS: Yes; No",
			ShowIf:      Rule{Equals("anaphylaxis", "Yes")},
		},
		{
			ID:          "epi-side-effects",
			Type:        ScreenTextarea,
			Title:       "Please describe any side effects you may have experienced from using epinephrine.",
			QuestionKey: "Please describe any side effects you may have experienced from using epinephrine.",
			Placeholder: "None",
			ShowIf: Rule{
				Equals("anaphylaxis", "Yes"),
				Equals("anaphylaxis-epi-use", "Yes"),
			},
		},
		{
			ID:          "anaphylaxis-cause-known",
			Type:        ScreenYesNo,
			Title:       "Do you know what caused the anaphylaxis?",
			QuestionKey: "Do you know what caused the anaphylaxis? POSSIBLE ANSWERS: Yes; No",
			ShowIf:      Rule{Equals("anaphylaxis", "Yes")},
		},
		{
			ID:          "anaphylaxis-cause-detail",
			Type:        ScreenTextarea,
			Title:       "Please provide what caused your anaphylaxis event.",
			QuestionKey: "Please provide what caused your anaphylaxis event.",
			Placeholder: "None",
			ShowIf: Rule{
				Equals("anaphylaxis", "Yes"),
				Equals("anaphylaxis-cause-known", "Yes"),
			},
		},
		{
			ID:          "allergic-symptoms",
			Type:        ScreenMultiSelect,
			Title:       "Have you had an allergic reaction with any of the following symptoms?",
			Subtitle:    "Select all that apply.",
			QuestionKey: "Have you had an allergic reaction with any of the following symptoms? POSSIBLE ANSWERS: Swelling of the face, lips, tongue or throat; Itching and/or redness; Shortness of breath or difficulty breathing; Coughing, choking, or wheezing; Nausea, vomiting, diarrhea, or abdominal pain; Low blood pressure; Rapid heart rate; Dizziness, lightheadedness, or fainting; Anxiety or confusion; Seizure; Joint pain; None of the above",
			ShowIf:      Rule{Equals("anaphylaxis", "No")},
			Options: []Option{
				opt("Swelling of the face, lips, tongue or throat"),
				opt("Itching and/or redness"),
				opt("Shortness of breath or difficulty breathing"),
				opt("Coughing, choking, or wheezing"),
				opt("Nausea, vomiting, diarrhea, or abdominal pain"),
				opt("Low blood pressure"),
				opt("Rapid heart rate"),
				opt("Dizziness, lightheadedness, or fainting"),
				opt("Anxiety or confusion"),
				opt("Seizure"),
				opt("Joint pain"),
				opt("None of the above"),
			},
		},
		{
			ID:          "why-seeking-rx",
			Type:        ScreenSingleSelect,
			Title:       "Why are you seeking a prescription for epinephrine?",
			QuestionKey: "Why are you seeking a prescription for epinephrine? POSSIBLE ANSWERS: I have an allergy that creates a potential for anaphylaxis; I have asthma; I have another reason for wanting to carry epinephrine",
			ShowIf:      Rule{Equals("anaphylaxis", "No")},
			Options: []Option{
				opt("I have an allergy that creates a potential for anaphylaxis"),
				opt("I have asthma"),
				opt("I have another reason for wanting to carry epinephrine"),
			},
		},
		{
			ID:          "ever-administered-epi",
			Type:        ScreenYesNo,
			Title:       "Have you ever been administered epinephrine (e.g., EpiPen)?",
			QuestionKey: "Have you ever been administered epinephrine (e.g., EpiPen)? POSSIBLE ANSWERS: Yes; No",
			ShowIf:      Rule{Equals("anaphylaxis", "No")},
		},
		{
			ID:          "epi-use-dates",
			Type:        ScreenTextarea,
			Title:       "Please provide the date(s) (month and year) when you had to use epinephrine.",
			QuestionKey: "Please provide the date(s) (month and year) when you had to use epinephrine.",
			Placeholder: "None",
			ShowIf:      Rule{Equals("anaphylaxis", "No")},
		},
		{
			ID:          "severe-allergy-diagnosis",
			Type:        ScreenYesNo,
			Title:       "Have you been diagnosed with a severe or potentially life-threatening allergy?",
			Subtitle:    "An allergy where you may go into anaphylaxis.",
			QuestionKey: "Have you been diagnosed with a severe or potentially life-threatening allergy (an allergy where you may go into anaphylaxis)? POSSIBLE ANSWERS: Yes; No",
		},
		{
			ID:          "allergen-types",
			Type:        ScreenMultiSelect,
			Title:       "Which of the following are you allergic to?",
			Subtitle:    "Select all that apply.",
			QuestionKey: "Which of the following are you allergic to that may lead to anaphylaxis? POSSIBLE ANSWERS: Eggs; Fish; Fruit; Insect bites or stings; Latex; Medication(s); Milk (dairy); Peanuts; Tree nuts; Shellfish; Wheat; Pollen; Soy; Other; None of the above",
			Options: []Option{
				opt("Eggs"),
				opt("Fish"),
				opt("Fruit"),
				{Label: "Insect bites or stings (bees, wasps, fire ants, mosquitoes)", Value: "Insect bites or stings"},
				opt("Latex"),
				opt("Medication(s)"),
				opt("Milk (dairy)"),
				opt("Peanuts"),
				opt("Tree nuts"),
				opt("Shellfish"),
				opt("Wheat"),
				opt("Pollen"),
				opt("Soy"),
				opt("Other"),
				opt("None of the above"),
			},
		},
		{
			ID:          "prescribed-epi",
			Type:        ScreenYesNo,
			Title:       "Have you ever been prescribed epinephrine (e.g., EpiPen)?",
			QuestionKey: "Have you ever been prescribed epinephrine (e.g., EpiPen)? POSSIBLE ANSWERS: Yes; No",
		},
		{
			ID:          "prescribed-epi-types",
			Type:        ScreenMultiSelect,
			Title:       "Please select all epinephrine treatments you have been prescribed.",
			QuestionKey: "Please select all epinephrine treatments you have been prescribed.",
			ShowIf:      Rule{Equals("prescribed-epi", "Yes")},
			Options: []Option{
				{Label: "Auvi-Q (epinephrine injection, USP) Auto-injector 0.3mg", Value: "Auvi-Q 0.3mg"},
				{Label: "EPIPEN (epinephrine injection, USP) Auto-injector 0.3mg", Value: "EPIPEN 0.3mg"},
				{Label: "Epinephrine Injection Auto-injector (Mylan) 0.3mg", Value: "Epinephrine Mylan 0.3mg"},
				{Label: "Epinephrine Injection Auto-injector (Teva) 0.3mg", Value: "Epinephrine Teva 0.3mg"},
				{Label: "Epinephrine Injection Auto-injector (Adrenaclick) 0.3mg", Value: "Epinephrine Adrenaclick 0.3mg"},
				{Label: "neffy (epinephrine nasal spray) 2mg", Value: "neffy 2mg"},
				opt("I don't know"),
			},
		},
		{
			ID:          "auto-injector-barriers",
			Type:        ScreenMultiSelect,
			Title:       "Would you delay or avoid administering epinephrine using an auto-injector in an emergency due to any of the following?",
			Subtitle:    "Select all that apply.",
			QuestionKey: "Would you delay or avoid administering epinephrine using an auto-injector in an emergency due to?",
			Options: []Option{
				{Label: "I have a fear of needles and will not use an auto-injector", Value: "Fear of needles"},
				{Label: "I have concerns with safety and risk of injury with auto-injector", Value: "Safety concerns"},
				{Label: "I have discomfort with using my auto-injector correctly", Value: "Discomfort with correct use"},
				{Label: "I have anxiety or hesitation to use my auto-injector", Value: "Anxiety or hesitation"},
				{Label: "Financial cost of replacing expired auto-injector", Value: "Financial cost"},
				{Label: "I have had previous negative experiences with auto-injector", Value: "Previous negative experience"},
				{Label: "I am reluctant to inject but would use a nasal form in an emergency", Value: "Would prefer nasal form"},
				{Label: "I have previously hesitated to self-inject when needing to use epinephrine", Value: "Previously hesitated"},
				{Label: "I have been diagnosed with Trypanophobia (an intense fear of needles)", Value: "Trypanophobia"},
				opt("Lack of portability"),
				{Label: "Other (please specify below)", Value: "Other"},
			},
		},
		{
			ID:          "why-neffy",
			Type:        ScreenTextarea,
			Title:       "Please provide any other information why neffy would be a good choice for you.",
			QuestionKey: "In the box below, please provide any other information why neffy would be a good choice for you.",
			Placeholder: "None",
		},
		{
			ID:          "conditions-checklist",
			Type:        ScreenMultiSelect,
			Title:       "Do you have any of the following?",
			Subtitle:    "Select all that apply.",
			QuestionKey: "Do you have any of the following?",
			Options: []Option{
				opt("Diabetes"),
				opt("Depression"),
				opt("Heart problems"),
				opt("High blood pressure"),
				opt("Thyroid problems"),
				opt("Kidney problems"),
				opt("Low potassium in blood"),
				{Label: "Nasal problems (polyps, injury, broken nose, or nasal surgery)", Value: "Nasal problems"},
				opt("Parkinson's Disease"),
				opt("Pregnant or plan to become pregnant"),
				opt("Plan to breastfeed"),
				opt("Pulmonary edema"),
				opt("None of the above"),
			},
		},
		{
			ID:          "sees-doctor-allergies",
			Type:        ScreenYesNo,
			Title:       "Do you see a medical professional for severe allergies or serious allergic reactions?",
			Subtitle:    "Such as a doctor or nurse practitioner for anaphylaxis (Type 1 allergic reaction).",
			QuestionKey: "Do you see a medical professional for severe allergies or serious allergic reactions, like anaphylaxis? POSSIBLE ANSWERS: Yes; No",
		},
		{
			ID:          "doctor-name",
			Type:        ScreenTextarea,
			Title:       "Please provide the full name of your medical doctor or nurse practitioner.",
			QuestionKey: "Please provide the full name of your medical doctor or nurse practitioner.",
			Placeholder: "None",
			ShowIf:      Rule{Equals("sees-doctor-allergies", "Yes")},
		},
		{
			ID:          "doctor-specialty",
			Type:        ScreenSingleSelect,
			Title:       "What is the specialty of your treating doctor or nurse practitioner?",
			QuestionKey: "What is the specialty of your treating doctor or nurse practitioner?",
			ShowIf:      Rule{Equals("sees-doctor-allergies", "Yes")},
			Options: []Option{
				opt("Allergy/Immunology"),
				{Label: "Ear Nose & Throat (ENT/Otolaryngology)", Value: "ENT/Otolaryngology"},
				opt("Primary care/Family Medicine"),
				opt("Other"),
			},
		},
		{
			ID:          "current-medications",
			Type:        ScreenTextarea,
			Title:       "Provide a complete list of all medications you are currently taking.",
			Subtitle:    "Include prescription medications, over-the-counter drugs, supplements, and herbal remedies.",
			QuestionKey: "Provide a complete list of all medications you are currently taking for all medical conditions.",
			Placeholder: "I am not taking medications",
			FormField:   "selfReportedMeds",
		},
		{
			ID:          "medical-conditions-text",
			Type:        ScreenTextarea,
			Title:       "List all medical conditions you have been diagnosed with.",
			Subtitle:    "Including serious illnesses, chronic conditions, and conditions for which you are currently taking medication.",
			QuestionKey: "List all medical conditions you have been diagnosed with.",
			Placeholder: "None",
			FormField:   "medicalConditions",
		},
		{
			ID:          "allergies-text",
			Type:        ScreenTextarea,
			Title:       "List all known allergies, including current and past.",
			Subtitle:    "Include allergies to medications, foods, environmental factors, and other substances. If possible, describe the type of reaction experienced.",
			QuestionKey: "List all known allergies, including current and past.",
			Placeholder: "None",
			FormField:   "allergies",
		},
		{ID: "pharmacist-waiver", Type: ScreenDeclaration, Title: "Pharmacist Counseling Waiver"},
		{ID: "truthfulness", Type: ScreenDeclaration, Title: "Declaration of Truthfulness"},
		{ID: "treatment-consent", Type: ScreenConsentLong, Title: "Treatment Consent"},
		{ID: "phone-verify", Type: ScreenPhoneVerify, Title: "Verify Your Phone"},
		{ID: "email-id", Type: ScreenEmailID, Title: "Your Information"},
		{ID: "shipping", Type: ScreenShipping, Title: "Shipping Address"},
		{ID: "plan-select", Type: ScreenPlanSelect, Title: "Choose Your Plan"},
		{ID: "checkout", Type: ScreenCheckout, Title: "Complete Your Order"},
	}
}

func opt(v string) Option { return Option{Label: v, Value: v} }
