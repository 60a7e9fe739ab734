package medical

import "strings"

// CheckupType is the code of a kind of medical checkup
type CheckupType string

// Checkup type codes, in seeding order
const (
	CheckupGP    CheckupType = "GP"    // general practitioner
	CheckupBlood CheckupType = "BLOOD" // blood test
	CheckupXRay  CheckupType = "XRAY"
	CheckupCT    CheckupType = "CT"
	CheckupMRI   CheckupType = "MRI"
	CheckupUltra CheckupType = "ULTRA" // ultrasound
	CheckupEKG   CheckupType = "EKG"   // electrocardiogram
	CheckupEcho  CheckupType = "ECHO"  // echocardiogram
	CheckupEye   CheckupType = "EYE"
	CheckupDerm  CheckupType = "DERM"  // dermatology
	CheckupDenta CheckupType = "DENTA" // dental
	CheckupMammo CheckupType = "MAMMO" // mammography
	CheckupEEG   CheckupType = "EEG"   // electroencephalogram
)

// CheckupTypes returns every checkup type code in seeding order
func CheckupTypes() []CheckupType {
	return []CheckupType{
		CheckupGP, CheckupBlood, CheckupXRay, CheckupCT, CheckupMRI, CheckupUltra, CheckupEKG,
		CheckupEcho, CheckupEye, CheckupDerm, CheckupDenta, CheckupMammo, CheckupEEG,
	}
}

// ParseCheckupType returns the checkup type named s, ignoring case
func ParseCheckupType(s string) (CheckupType, bool) {
	for _, t := range CheckupTypes() {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}
