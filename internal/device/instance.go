package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/khr_surface"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

// requiredInstanceExtensions is the window's list plus debug utils when
// validating.
func requiredInstanceExtensions(windowExtensions []string, validation bool) []string {
	required := append([]string(nil), windowExtensions...)
	if validation {
		required = append(required, ext_debug_utils.ExtensionName)
	}
	return required
}

// missingNames returns the entries of required that are not keys of
// available, in order.
func missingNames[T any](required []string, available map[string]T) []string {
	var missing []string
	for _, name := range required {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (d *Device) createInstance(windowExtensions []string) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    "Breakable Toy App",
		ApplicationVersion: common.CreateVersion(0, 1, 0),
		EngineName:         "Breakable Toy",
		EngineVersion:      common.CreateVersion(0, 1, 0),
		APIVersion:         common.Vulkan1_0,
	}

	// Add extensions
	extensions, _, err := d.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "failed to enumerate instance extensions")
	}

	d.log.Debugf("available extensions:")
	for name := range extensions {
		d.log.Debugf("\t%s", name)
	}

	required := requiredInstanceExtensions(windowExtensions, d.validation)
	d.log.Debugf("required extensions:")
	for _, name := range required {
		d.log.Debugf("\t%s", name)
	}

	if missing := missingNames(required, extensions); len(missing) > 0 {
		return errors.Newf("missing required instance extensions %v", missing)
	}
	instanceOptions.EnabledExtensionNames = required

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	// Add layers
	if d.validation {
		layers, _, err := d.loader.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "failed to enumerate instance layers")
		}

		if missing := missingNames(validationLayers, layers); len(missing) > 0 {
			return errors.WithHint(
				errors.Newf("validation layers requested, but not available: %v", missing),
				"install the LunarG Vulkan SDK or disable validation")
		}
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayers...)

		// Cover instance creation and destruction with the messenger too
		instanceOptions.Next = d.debugMessengerOptions()
	}

	d.instance, _, err = d.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "failed to create instance")
	}

	return nil
}

func (d *Device) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    d.logDebug,
	}
}

func (d *Device) setupDebugMessenger() error {
	if !d.validation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(d.instance)
	d.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(d.instance, nil, d.debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "failed to set up debug messenger")
	}

	return nil
}

func (d *Device) createSurface(window SurfaceSource) error {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(d.instance)

	surface, err := window.CreateSurface(d.instance, surfaceLoader)
	if err != nil {
		return err
	}

	d.surface = surface
	return nil
}
