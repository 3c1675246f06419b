package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiseaseType(t *testing.T) {
	tests := []struct {
		input   string
		want    DiseaseType
		wantErr bool
	}{
		{"plant", DiseaseTypePlant, false},
		{"livestock", DiseaseTypeLivestock, false},
		{"Plant", "", true},
		{"all", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDiseaseType(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchScope(t *testing.T) {
	all, err := ParseSearchScope("all")
	require.NoError(t, err)
	assert.True(t, all.Includes(DiseaseTypePlant))
	assert.True(t, all.Includes(DiseaseTypeLivestock))

	plant, err := ParseSearchScope("plant")
	require.NoError(t, err)
	assert.True(t, plant.Includes(DiseaseTypePlant))
	assert.False(t, plant.Includes(DiseaseTypeLivestock))

	_, err = ParseSearchScope("fish")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleFarmer.IsValid())
	assert.False(t, Role("guest").IsValid())

	assert.False(t, RoleFarmer.CanReview())
	assert.True(t, RoleExpert.CanReview())
	assert.True(t, RoleVeterinarian.CanReview())
	assert.True(t, RoleAdmin.CanReview())
}

func TestDiagnosisRecordTransitions(t *testing.T) {
	record := NewDiagnosisRecord(uuid.New(), DiseaseTypePlant, "tomato", []string{"Wilting"})
	assert.Equal(t, StatusPending, record.Status)
	assert.Nil(t, record.DiseaseID)
	assert.Nil(t, record.Confidence)

	disease := &DiseaseEntry{ID: uuid.New(), Name: "Late Blight"}
	record.Complete(disease, 0.82)

	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, record.DiseaseID)
	require.NotNil(t, record.DiagnosisResult)
	require.NotNil(t, record.Confidence)
	assert.Equal(t, disease.ID, *record.DiseaseID)
	assert.Equal(t, "Late Blight", *record.DiagnosisResult)
	assert.InDelta(t, 0.82, *record.Confidence, 1e-9)

	record.ResetForReevaluation([]string{"Leaf curl"})
	assert.Equal(t, StatusPending, record.Status)
	assert.Equal(t, []string{"Leaf curl"}, record.Symptoms)
	assert.Nil(t, record.DiseaseID)
	assert.Nil(t, record.DiagnosisResult)
	assert.Nil(t, record.Confidence)

	record.SendToExpertReview()
	assert.Equal(t, StatusExpertReview, record.Status)
	assert.Nil(t, record.DiseaseID)
	assert.Nil(t, record.Confidence)
}

func TestDiseaseEntryJSONSpeciesKey(t *testing.T) {
	plant := DiseaseEntry{ID: uuid.New(), Type: DiseaseTypePlant, Name: "Late Blight", SpeciesKey: "tomato"}
	data, err := json.Marshal(plant)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "tomato", decoded["plantType"])
	assert.NotContains(t, decoded, "animalType")
	assert.NotContains(t, decoded, "idealTemperature")

	zoonotic := true
	livestock := DiseaseEntry{
		ID:               uuid.New(),
		Type:             DiseaseTypeLivestock,
		Name:             "Avian Influenza",
		SpeciesKey:       "poultry",
		Zoonotic:         &zoonotic,
		IdealTemperature: &TemperatureRange{},
	}
	data, err = json.Marshal(livestock)
	require.NoError(t, err)

	decoded = nil
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "poultry", decoded["animalType"])
	assert.Equal(t, true, decoded["zoonotic"])
	assert.Equal(t, []interface{}{nil, nil}, decoded["idealTemperature"])
}
