package setup

import "github.com/agrihealth-server/internal/domain"

func temperatureRange(min, max float64) *domain.TemperatureRange {
	return &domain.TemperatureRange{&min, &max}
}

func boolPtr(v bool) *bool {
	return &v
}

// PlantDiseases is the initial plant partition of the catalog
func PlantDiseases() []*domain.DiseaseEntry {
	return []*domain.DiseaseEntry{
		{
			Type:        domain.DiseaseTypePlant,
			Name:        "Late Blight",
			SpeciesKey:  "tomato",
			Description: "Late blight is a potentially serious disease of potato and tomato, caused by the fungus-like organism Phytophthora infestans.",
			Symptoms: []string{
				"Dark brown spots on leaves",
				"White fungal growth on undersides of leaves",
				"Brown lesions on stems",
				"Fruit rot with greasy appearance",
			},
			Causes: "The disease is caused by the oomycete pathogen Phytophthora infestans. It thrives in cool, wet conditions.",
			PreventionMethods: []string{
				"Use resistant varieties",
				"Provide good air circulation",
				"Avoid overhead irrigation",
				"Rotate crops",
			},
			TreatmentMethods: []string{
				"Apply fungicides preventatively",
				"Remove and destroy infected plants",
				"Copper-based sprays can help",
			},
			OptimalTemperature: "10-20°C",
			Severity:           domain.SeverityHigh,
		},
		{
			Type:        domain.DiseaseTypePlant,
			Name:        "Powdery Mildew",
			SpeciesKey:  "cucumber",
			Description: "Powdery mildew is a fungal disease that affects a wide range of plants, particularly cucurbits.",
			Symptoms: []string{
				"White powdery spots on leaves and stems",
				"Yellow leaves",
				"Distorted leaves",
				"Premature leaf drop",
			},
			Causes: "The disease is caused by several species of fungi. High humidity and moderate temperatures favor development.",
			PreventionMethods: []string{
				"Plant resistant varieties",
				"Ensure proper spacing for air circulation",
				"Avoid overhead watering",
				"Remove plant debris",
			},
			TreatmentMethods: []string{
				"Apply fungicides",
				"Use neem oil or potassium bicarbonate",
				"Remove and destroy infected parts",
			},
			OptimalTemperature: "18-30°C",
			Severity:           domain.SeverityMedium,
		},
		{
			Type:        domain.DiseaseTypePlant,
			Name:        "Anthracnose",
			SpeciesKey:  "mango",
			Description: "Anthracnose is a common disease of mangoes affecting leaves, flowers, and fruit.",
			Symptoms: []string{
				"Dark, sunken lesions on fruit",
				"Black spots on leaves",
				"Flower blight",
				"Twig dieback",
			},
			Causes: "The disease is caused by Colletotrichum gloeosporioides fungus. Warm, wet conditions favor development.",
			PreventionMethods: []string{
				"Prune trees for better air circulation",
				"Remove fallen debris",
				"Apply preventative fungicides",
				"Harvest fruit at proper maturity",
			},
			TreatmentMethods: []string{
				"Apply copper-based fungicides",
				"Postharvest hot water treatment",
				"Careful handling to avoid wounds",
			},
			OptimalTemperature: "25-30°C",
			Severity:           domain.SeverityMedium,
		},
		{
			Type:        domain.DiseaseTypePlant,
			Name:        "Bacterial Leaf Blight",
			SpeciesKey:  "rice",
			Description: "Bacterial leaf blight is a serious disease of rice caused by Xanthomonas oryzae.",
			Symptoms: []string{
				"Water-soaked lesions on leaf edges",
				"Lesions turning yellow to white",
				"Wilting of leaves",
				"Dried leaves",
			},
			Causes: "The disease is caused by the bacterium Xanthomonas oryzae pv. oryzae. High humidity and high temperatures favor development.",
			PreventionMethods: []string{
				"Use resistant varieties",
				"Proper field drainage",
				"Balanced fertilization",
				"Proper spacing",
			},
			TreatmentMethods: []string{
				"Application of copper-based bactericides",
				"Drain fields to reduce humidity",
				"Remove and destroy infected plants",
			},
			OptimalTemperature: "25-34°C",
			Severity:           domain.SeverityHigh,
		},
		{
			Type:        domain.DiseaseTypePlant,
			Name:        "Corn Rust",
			SpeciesKey:  "corn",
			Description: "Corn rust is a fungal disease that affects corn production worldwide.",
			Symptoms: []string{
				"Orange-brown pustules on leaves",
				"Pustules turn dark brown-black",
				"Severe infections cause leaf death",
				"Reduced grain yield",
			},
			Causes: "The disease is caused by Puccinia sorghi or Puccinia polysora fungi. Warm, humid conditions favor development.",
			PreventionMethods: []string{
				"Plant resistant hybrids",
				"Crop rotation",
				"Early planting",
				"Destroy volunteer corn",
			},
			TreatmentMethods: []string{
				"Apply fungicides",
				"Improve air circulation",
				"Proper plant nutrition",
			},
			OptimalTemperature: "16-25°C",
			Severity:           domain.SeverityMedium,
		},
	}
}

// LivestockDiseases is the initial livestock partition of the catalog
func LivestockDiseases() []*domain.DiseaseEntry {
	return []*domain.DiseaseEntry{
		{
			Type:        domain.DiseaseTypeLivestock,
			Name:        "Foot and Mouth Disease",
			SpeciesKey:  "cattle",
			Description: "Foot and mouth disease (FMD) is a highly contagious viral disease affecting cloven-hoofed animals.",
			Symptoms: []string{
				"Fever",
				"Blisters on mouth and feet",
				"Excessive salivation",
				"Lameness",
				"Reduced milk production",
			},
			Causes: "The disease is caused by the foot-and-mouth disease virus (FMDV). Highly contagious through direct and indirect contact.",
			PreventionMethods: []string{
				"Vaccination",
				"Biosecurity measures",
				"Movement restrictions",
				"Quarantine new animals",
			},
			TreatmentMethods: []string{
				"No specific treatment",
				"Supportive care",
				"Anti-inflammatory medication",
				"Rest and soft food",
			},
			TemperatureFactors: "Fever (104-106°F/40-41°C) is an early sign. Temperature monitoring is essential for early detection.",
			IdealTemperature:   temperatureRange(38.5, 39.5),
			Zoonotic:           boolPtr(false),
			Severity:           domain.SeverityHigh,
			IncubationPeriod:   "2-14 days",
		},
		{
			Type:        domain.DiseaseTypeLivestock,
			Name:        "Avian Influenza",
			SpeciesKey:  "poultry",
			Description: "Avian influenza is a highly contagious viral infection affecting birds, especially poultry.",
			Symptoms: []string{
				"Sudden death",
				"Lack of energy and appetite",
				"Decreased egg production",
				"Swelling of head and comb",
				"Respiratory distress",
			},
			Causes: "The disease is caused by Influenza A viruses. Spreads through direct contact with infected birds or contaminated surfaces.",
			PreventionMethods: []string{
				"Biosecurity measures",
				"Isolation of new birds",
				"Limiting contact with wild birds",
				"Regular cleaning and disinfection",
			},
			TreatmentMethods: []string{
				"No specific treatment",
				"Culling of infected flocks",
				"Supportive care for valuable birds",
			},
			TemperatureFactors: "Birds may show elevated body temperature. Virus survives better in cooler temperatures.",
			IdealTemperature:   temperatureRange(40.6, 41.7),
			Zoonotic:           boolPtr(true),
			Severity:           domain.SeverityHigh,
			IncubationPeriod:   "3-7 days",
		},
		{
			Type:        domain.DiseaseTypeLivestock,
			Name:        "Mastitis",
			SpeciesKey:  "dairy cow",
			Description: "Mastitis is an inflammation of the mammary gland and udder tissue in dairy animals.",
			Symptoms: []string{
				"Swollen udder",
				"Pain and discomfort",
				"Abnormal milk (clots, watery)",
				"Reduced milk production",
				"Fever",
			},
			Causes: "The disease is commonly caused by bacterial infections (Staphylococcus, Streptococcus, E. coli). Poor milking hygiene and injured teats increase risk.",
			PreventionMethods: []string{
				"Good milking hygiene",
				"Proper milking technique",
				"Clean housing",
				"Teat dipping after milking",
			},
			TreatmentMethods: []string{
				"Antibiotics (intramammary or systemic)",
				"Anti-inflammatory drugs",
				"Frequent milking of affected quarters",
				"Supportive care",
			},
			TemperatureFactors: "Mild to moderate fever (39-40°C) may be present. Higher environmental temperatures can increase stress and susceptibility.",
			IdealTemperature:   temperatureRange(38.5, 39.0),
			Zoonotic:           boolPtr(false),
			Severity:           domain.SeverityMedium,
			IncubationPeriod:   "1-3 days",
		},
		{
			Type:        domain.DiseaseTypeLivestock,
			Name:        "African Swine Fever",
			SpeciesKey:  "pig",
			Description: "African swine fever (ASF) is a highly contagious viral disease affecting domestic and wild pigs.",
			Symptoms: []string{
				"High fever",
				"Loss of appetite",
				"Hemorrhages in skin and internal organs",
				"Vomiting and diarrhea",
				"Sudden death",
			},
			Causes: "The disease is caused by the African swine fever virus (ASFV). Spreads through direct contact, vectors (ticks), or contaminated feed.",
			PreventionMethods: []string{
				"Strict biosecurity measures",
				"Proper disposal of dead pigs",
				"Control of tick vectors",
				"Movement restrictions",
			},
			TreatmentMethods: []string{
				"No treatment available",
				"Infected pigs must be culled",
				"Area disinfection",
			},
			TemperatureFactors: "High fever (40.5-42°C) is a characteristic sign. Monitoring temperature can help with early detection.",
			IdealTemperature:   temperatureRange(38.0, 39.0),
			Zoonotic:           boolPtr(false),
			Severity:           domain.SeverityHigh,
			IncubationPeriod:   "5-15 days",
		},
		{
			Type:        domain.DiseaseTypeLivestock,
			Name:        "Bluetongue",
			SpeciesKey:  "sheep",
			Description: "Bluetongue is a non-contagious, insect-borne viral disease affecting sheep and occasionally cattle and goats.",
			Symptoms: []string{
				"Fever",
				"Swelling of the face and tongue",
				"Blue discoloration of the tongue",
				"Nasal discharge and drooling",
				"Lameness",
			},
			Causes: "The disease is caused by the bluetongue virus, transmitted by Culicoides biting midges.",
			PreventionMethods: []string{
				"Vaccination in endemic areas",
				"Control of insect vectors",
				"Housing animals during peak vector activity",
				"Insect repellents",
			},
			TreatmentMethods: []string{
				"No specific treatment",
				"Supportive care",
				"Anti-inflammatory drugs",
				"Soft food and water",
			},
			TemperatureFactors: "Fever (40-42°C) often precedes other clinical signs. Temperature monitoring is important for early detection.",
			IdealTemperature:   temperatureRange(38.5, 39.5),
			Zoonotic:           boolPtr(false),
			Severity:           domain.SeverityMedium,
			IncubationPeriod:   "7-10 days",
		},
	}
}
